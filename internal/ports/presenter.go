package ports

import "github.com/UAlberta-EcoCar/Sally-Dashboard/internal/domain"

// Presenter receives render-ready frames. Present must return promptly; a
// slow display must not delay the render scheduler, so implementations either
// hand off to their own goroutine or drop superseded frames.
type Presenter interface {
	Present(frame domain.RenderFrame) error
	Name() string
}

// AlertSink receives the active alert list whenever it changes, for audible
// or visual escalation outside the core. Push-based and non-blocking.
type AlertSink interface {
	Notify(alerts []domain.Alert)
}
