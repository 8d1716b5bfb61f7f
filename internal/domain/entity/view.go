package entity

// Status is the coarse session status shown to the user.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// SessionState is a snapshot of the raw session fields.
type SessionState struct {
	Image   *Image
	Result  *AnalysisResult
	Loading bool
	Error   string
}

// View is exactly one of IdleView, LoadingView, ErrorView or SuccessView.
type View interface {
	Status() Status
	view()
}

// IdleView is the upload view. Image is set once a photo was chosen.
type IdleView struct {
	Image *Image
}

// CanAnalyze reports whether the analyze action should be offered.
func (v IdleView) CanAnalyze() bool { return v.Image != nil }

// LoadingView is the progress indicator.
type LoadingView struct{}

// ErrorView carries the user-facing error message.
type ErrorView struct {
	Message string
}

// SuccessView carries the result and the photo it belongs to.
type SuccessView struct {
	Image  *Image
	Result *AnalysisResult
}

func (IdleView) Status() Status    { return StatusIdle }
func (LoadingView) Status() Status { return StatusLoading }
func (ErrorView) Status() Status   { return StatusError }
func (SuccessView) Status() Status { return StatusSuccess }

func (IdleView) view()    {}
func (LoadingView) view() {}
func (ErrorView) view()   {}
func (SuccessView) view() {}

// View derives the single visible view. Loading dominates error, error
// dominates the result, the result dominates the upload view.
func (s SessionState) View() View {
	switch {
	case s.Loading:
		return LoadingView{}
	case s.Error != "":
		return ErrorView{Message: s.Error}
	case s.Image != nil && s.Result != nil:
		return SuccessView{Image: s.Image, Result: s.Result}
	default:
		return IdleView{Image: s.Image}
	}
}
