package setup

import (
	"io"

	"github.com/fatih/color"
)

// Reporter prints the human-facing banners.
type Reporter struct {
	out     io.Writer
	success *color.Color
	failure *color.Color
	info    *color.Color
}

// NewReporter writes banners to out, uncolored when noColor is set.
func NewReporter(out io.Writer, noColor bool) *Reporter {
	r := &Reporter{
		out:     out,
		success: color.New(color.FgGreen, color.Bold),
		failure: color.New(color.FgRed, color.Bold),
		info:    color.New(color.FgCyan),
	}
	if noColor {
		r.success.DisableColor()
		r.failure.DisableColor()
		r.info.DisableColor()
	}
	return r
}

// Start announces the run.
func (r *Reporter) Start() {
	r.info.Fprintln(r.out, "Setting up Firestore database...")
}

// Report prints the outcome. Connectivity and permission failures also get
// the manual setup steps for projectID.
func (r *Reporter) Report(res Result, projectID string) {
	if res.OK() {
		r.success.Fprintln(r.out, "✅ Database setup completed successfully!")
		r.info.Fprintln(r.out, "You can now use your habit tracker app with Firebase.")
		return
	}

	r.failure.Fprintf(r.out, "❌ Error setting up database: %v\n", res.Err)
	if res.Kind == KindCredential {
		return
	}
	r.info.Fprintln(r.out, "\n💡 Manual Setup Required:")
	r.info.Fprintln(r.out, "1. Go to https://console.firebase.google.com/")
	r.info.Fprintf(r.out, "2. Select project: %s\n", projectID)
	r.info.Fprintln(r.out, "3. Go to Firestore Database")
	r.info.Fprintln(r.out, "4. Click 'Create database'")
	r.info.Fprintln(r.out, "5. Choose 'Start in test mode'")
	r.info.Fprintln(r.out, "6. Select a location and click 'Done'")
}
