package arab_coders_client

const (
	// API Endpoints
	SoonContestsEndpoint    = "/contests/soon"
	RunningContestsEndpoint = "/contests/running"
	EndedContestsEndpoint   = "/contests/ended"
	ContestEndpoint         = "/contests"

	// Headers
	AuthorizationHeader = "Authorization"
	AcceptHeader        = "Accept"
	UserAgentHeader     = "User-Agent"
	UserAgent           = "contesthub/1.0"
)

// Endpoints holds the list paths for each status bucket. Zero fields fall back
// to the defaults above.
type Endpoints struct {
	Soon    string `yaml:"soon"`
	Running string `yaml:"running"`
	Ended   string `yaml:"ended"`
	Detail  string `yaml:"detail"`
}

// DefaultEndpoints returns the paths used by the public API
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Soon:    SoonContestsEndpoint,
		Running: RunningContestsEndpoint,
		Ended:   EndedContestsEndpoint,
		Detail:  ContestEndpoint,
	}
}

// WithDefaults fills empty paths from DefaultEndpoints
func (e Endpoints) WithDefaults() Endpoints {
	d := DefaultEndpoints()
	if e.Soon == "" {
		e.Soon = d.Soon
	}
	if e.Running == "" {
		e.Running = d.Running
	}
	if e.Ended == "" {
		e.Ended = d.Ended
	}
	if e.Detail == "" {
		e.Detail = d.Detail
	}
	return e
}
