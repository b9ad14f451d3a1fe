package observability

// Metric name prefixes
const (
	MetricPrefix = "welcomer"
)

// Metric names
const (
	WelcomesSentTotal          = MetricPrefix + ".welcomes.sent_total"
	WelcomesFailedTotal        = MetricPrefix + ".welcomes.failed_total"
	ImageRenderDuration        = MetricPrefix + ".images.render_duration"
	AvatarFetchFailuresTotal   = MetricPrefix + ".avatars.fetch_failures_total"
	PromptsAbortedTotal        = MetricPrefix + ".prompts.aborted_total"
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"
)

// Label keys
const (
	LabelType      = "type"
	LabelReason    = "reason"
	LabelEventType = "event_type"
)

// Welcome types
const (
	WelcomeTypeText      = "text"
	WelcomeTypeImage     = "image"
	WelcomeTypeTextImage = "text_image"
)

// Failure reasons
const (
	ReasonSelection = "selection"
	ReasonDelivery  = "delivery"
	ReasonTimeout   = "timeout"
	ReasonInvalid   = "invalid_input"
	ReasonCancelled = "cancelled"
)
