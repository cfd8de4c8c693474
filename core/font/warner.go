package font

import "fmt"

// Warner issues warnings about non-fatal problems, e.g. missing glyph
// variants or substituted styles. Warnings are traced at level Info; if a
// handler is set, it will be called for every warning as well.
//
// The zero value is ready to use. Warner is meant to be embedded into
// font implementations and typefaces.
type Warner struct {
	handler func(msg string)
}

// SetWarningHandler installs a function to be called for every warning.
// A nil handler removes a previously installed one.
func (w *Warner) SetWarningHandler(h func(msg string)) {
	w.handler = h
}

// Warn issues a warning.
func (w *Warner) Warn(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	tracer().Infof("warning: %s", msg)
	if w.handler != nil {
		w.handler(msg)
	}
}
