package event

// SheetSaved is published after a character's stat sheet is stored.
type SheetSaved struct {
	ID         string
	Revision   int64
	GrandTotal int
	Warnings   []string
}

// SheetMigrated is published when a legacy record gets its first stored
// sheet.
type SheetMigrated struct {
	ID       string
	Revision int64
}
