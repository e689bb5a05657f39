package viewmodels

type DetectPageViewData struct {
	Layout LayoutData
	Status BackendStatusViewData
	Panel  DetectPanelViewData
}

type BackendStatusViewData struct {
	Label string
	Class string
	// Pending is true until the startup probe has reported.
	Pending bool
}

type DetectPanelViewData struct {
	CSRFToken   string
	HasImage    bool
	Filename    string
	SizeLabel   string
	PreviewURL  string
	InFlight    bool
	ButtonLabel string
	Notice      string
	Error       string
	Result      *DetectResultViewData
}

type DetectResultViewData struct {
	Classification  string
	ConfidenceLabel string
	BarWidth        string
	Positive        bool
	Class           string
}
