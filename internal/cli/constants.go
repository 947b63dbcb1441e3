package cli

// Output layout.
const (
	// ProgressBarWidth is the number of cells in the download progress bar.
	ProgressBarWidth = 50
	// MaxListedFiles caps the files shown per package by list before summarizing.
	MaxListedFiles = 5
	// percent is the scale of the progress figure.
	percent = 100
)
