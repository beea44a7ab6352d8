package wire

// Question is a single entry in a message's question section.
type Question struct {
	Name  Name
	Type  RType
	Class Class
}

// Size returns the question's wire size: the name plus 2 octets of type
// and 2 octets of class.
func (q Question) Size() int { return q.Name.WireSize() + 4 }

// EncodeQuestion appends q to w.
func EncodeQuestion(w *Writer, q Question) error {
	if err := EncodeName(w, q.Name); err != nil {
		return err
	}
	w.PutU16(uint16(q.Type))
	w.PutU16(uint16(q.Class))
	return nil
}

// DecodeQuestion reads a question from r.
func DecodeQuestion(r *Reader) (Question, error) {
	name, err := DecodeName(r)
	if err != nil {
		return Question{}, err
	}
	ty, err := r.ReadU16()
	if err != nil {
		return Question{}, err
	}
	class, err := r.ReadU16()
	if err != nil {
		return Question{}, err
	}
	return Question{Name: name, Type: RType(ty), Class: Class(class)}, nil
}
