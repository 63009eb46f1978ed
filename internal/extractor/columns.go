package extractor

// Column identifies one projectable field of a parsed scene.
type Column string

const (
	ColumnSceneNumber    Column = "sceneNumber"
	ColumnSceneHeading   Column = "sceneHeading"
	ColumnLocation       Column = "location"
	ColumnTime           Column = "time"
	ColumnCharacters     Column = "characters"
	ColumnProps          Column = "props"
	ColumnTone           Column = "tone"
	ColumnCameraMovement Column = "cameraMovement"
	ColumnAction         Column = "action"
	ColumnDialogue       Column = "dialogue"
)

var allColumns = []Column{
	ColumnSceneNumber,
	ColumnSceneHeading,
	ColumnLocation,
	ColumnTime,
	ColumnCharacters,
	ColumnProps,
	ColumnTone,
	ColumnCameraMovement,
	ColumnAction,
	ColumnDialogue,
}

var columnSet = func() map[Column]struct{} {
	set := make(map[Column]struct{}, len(allColumns))
	for _, column := range allColumns {
		set[column] = struct{}{}
	}
	return set
}()

// AllColumns returns the ordered list of recognized columns.
func AllColumns() []Column {
	cp := make([]Column, len(allColumns))
	copy(cp, allColumns)
	return cp
}

// AllColumnNames returns the recognized column names in canonical order.
func AllColumnNames() []string {
	names := make([]string, len(allColumns))
	for i, column := range allColumns {
		names[i] = string(column)
	}
	return names
}

// ColumnSet is a selection of scene fields to include in output records.
type ColumnSet map[Column]struct{}

// ParseColumns converts raw column names into a ColumnSet. Unknown names are
// returned separately so callers can reject the whole selection.
func ParseColumns(names []string) (ColumnSet, []string) {
	set := make(ColumnSet, len(names))
	var unknown []string
	for _, name := range names {
		column := Column(name)
		if _, ok := columnSet[column]; !ok {
			unknown = append(unknown, name)
			continue
		}
		set[column] = struct{}{}
	}
	return set, unknown
}

// Has reports whether the column is part of the selection.
func (s ColumnSet) Has(column Column) bool {
	_, ok := s[column]
	return ok
}

// Names returns the selected column names in canonical order.
func (s ColumnSet) Names() []string {
	names := make([]string, 0, len(s))
	for _, column := range allColumns {
		if s.Has(column) {
			names = append(names, string(column))
		}
	}
	return names
}
