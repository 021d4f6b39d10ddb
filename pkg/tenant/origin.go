package tenant

// OriginKind identifies the call site that started a guarded execution.
type OriginKind uint8

const (
	OriginController OriginKind = iota + 1
	OriginWorker
	OriginJob
	OriginManual
)

func (k OriginKind) String() string {
	switch k {
	case OriginController:
		return "Controller"
	case OriginWorker:
		return "Worker"
	case OriginJob:
		return "Job"
	case OriginManual:
		return "Manual"
	default:
		return "Unknown"
	}
}

// Origin is the raw call-site input of a guarded execution.
// The set of implementations is closed: ControllerOrigin, WorkerOrigin,
// JobOrigin and ManualOrigin.
type Origin interface {
	Kind() OriginKind
	origin()
}

// RequestOrigin is the HTTP request collaborator. It exposes the principal
// authenticated by the surrounding auth layer.
type RequestOrigin interface {
	CurrentPrincipal() (any, bool)
}

// TenantObjectSource is optionally implemented by a RequestOrigin that can
// return the current tenant object by its configured key (current_<key>).
type TenantObjectSource interface {
	CurrentTenantObject(key string) (any, bool)
}

// ControllerOrigin describes an HTTP request.
type ControllerOrigin struct {
	Request        RequestOrigin
	CurrentUser    any
	CurrentCompany any
	// TenantObject is the value of the dynamically named current_<key>
	// accessor. When nil, Request is asked through TenantObjectSource.
	TenantObject any
	// Values carries flat data from an external auth layer such as token claims.
	Values map[string]any
}

// WorkerOrigin describes a worker invocation with positional arguments.
// Args is a sequence or a mapping.
type WorkerOrigin struct {
	Args any
}

// JobOrigin describes a job execution. Payload is a mapping, JSON text or an
// object implementing the capability interfaces. When Parse is set its result
// is preferred over the raw payload.
type JobOrigin struct {
	Payload any
	Parse   func(raw any) (any, error)
}

// ManualOrigin is an explicit override.
type ManualOrigin struct {
	TenantID any
	User     any
}

func (ControllerOrigin) Kind() OriginKind { return OriginController }
func (WorkerOrigin) Kind() OriginKind     { return OriginWorker }
func (JobOrigin) Kind() OriginKind        { return OriginJob }
func (ManualOrigin) Kind() OriginKind     { return OriginManual }

func (ControllerOrigin) origin() {}
func (WorkerOrigin) origin()     {}
func (JobOrigin) origin()        {}
func (ManualOrigin) origin()     {}

func kindOf(o Origin) OriginKind {
	if o == nil {
		return 0
	}
	return o.Kind()
}
