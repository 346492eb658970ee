package parc

// SimilarTo reports whether two archives share the same endianness,
// extension flags, and directory/file counts with matching names at
// every index, the precondition Flash requires before it will copy
// state across them (§4.11).
func (a *Archive) SimilarTo(other *Archive) bool {
	if a.Endianness != other.Endianness {
		return false
	}
	if a.SizeExtended != other.SizeExtended || a.Relocated != other.Relocated {
		return false
	}
	if len(a.Directories) != len(other.Directories) || len(a.Files) != len(other.Files) {
		return false
	}
	for i, d := range a.Directories {
		if d.Name != other.Directories[i].Name {
			return false
		}
	}
	for i, f := range a.Files {
		if f.Name != other.Files[i].Name {
			return false
		}
	}
	return true
}

// Flash copies each file's current payload, compression state, and
// attributes from src onto the matching index in a, leaving a's
// directory/file table structure untouched. It refuses archives that
// aren't SimilarTo each other.
func (a *Archive) Flash(src *Archive) error {
	if !a.SimilarTo(src) {
		return ErrNotSimilar
	}

	a.Platform = src.Platform
	a.UnknownA = src.UnknownA

	for i, f := range a.Files {
		sf := src.Files[i]
		rec, ok := sf.History.Current()
		if !ok {
			continue
		}
		f.Attributes = sf.Attributes
		f.Timestamp = sf.Timestamp
		f.OrigCompressed = sf.OrigCompressed
		f.WasCompressed = sf.WasCompressed
		f.Size = sf.Size
		f.History.Add(HistoryRecord{Data: append([]byte(nil), rec.Data...), IsCompressed: rec.IsCompressed})
	}

	for i, d := range a.Directories {
		d.Attributes = src.Directories[i].Attributes
	}

	return nil
}
