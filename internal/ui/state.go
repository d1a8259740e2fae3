package ui

// Texts shared by every screen for the three fetch states.
const (
	LoadingText = "Loading..."
	NoDataText  = "No data to show."
)

// Loading renders the loading line; indicator is usually a spinner frame.
func Loading(indicator string) string {
	if indicator == "" {
		return Current().Muted.Render(LoadingText)
	}
	return indicator + " " + Current().Muted.Render(LoadingText)
}

// ErrorLine renders msg as an error, visually distinct from NoData.
func ErrorLine(msg string) string {
	return Current().Error.Render(Current().SymFail + " " + msg)
}

// NoData renders the "nothing to show" line; msg overrides the default text.
func NoData(msg string) string {
	if msg == "" {
		msg = NoDataText
	}
	return Current().Muted.Render(msg)
}
