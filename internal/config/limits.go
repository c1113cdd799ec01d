package config

const (
	// MaxTitleLength is the maximum length for document, section, and
	// session titles. Limited to 255 to fit in VARCHAR(255).
	MaxTitleLength = 255

	// MaxSectionNumberLength bounds human-facing section numbers like
	// "3.2.1". 50 characters allows absurdly deep outlines without
	// letting the column grow unbounded.
	MaxSectionNumberLength = 50

	// MaxNoteLength bounds free-text binding notes.
	MaxNoteLength = 2000
)
