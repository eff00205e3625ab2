package prometheus

type Sizer interface {
	CountEndpoints() (uint, error)
	CountActiveEndpoints() (uint, error)
}
