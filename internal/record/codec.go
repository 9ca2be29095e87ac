package record

import (
	"fmt"

	"github.com/scardb/scardb/internal/alias/bx"
	"github.com/scardb/scardb/internal/enginerr"
	"github.com/scardb/scardb/internal/value"
)

// Row is one decoded row: one value.Value per schema column, in column
// order.
type Row []value.Value

// Encode is total: any schema-valid Row encodes to exactly Schema.Width()
// bytes, and Decode(Encode(r)) == r for any schema-valid r (spec §4.2).
func Encode(s Schema, row Row) ([]byte, error) {
	if len(row) != len(s.Columns) {
		return nil, fmt.Errorf("%w: expected %d values, got %d", enginerr.Unsupported, len(s.Columns), len(row))
	}

	out := make([]byte, s.Width())
	off := 0
	for i, col := range s.Columns {
		v := row[i]
		w := col.EncodedWidth()
		if v.Kind != col.ValueKind() {
			return nil, fmt.Errorf("%w: column %q expects %s, got %s", enginerr.TypeMismatch, col.Name, col.Type, v.Kind)
		}

		switch col.Type {
		case TypeInt:
			bx.PutU64(out[off:off+8], uint64(v.I))
		case TypeBoolean:
			if v.B {
				out[off] = 0x01
			} else {
				out[off] = 0x00
			}
		case TypeVarchar:
			data := []byte(v.S)
			if len(data) > col.Width {
				return nil, fmt.Errorf("%w: column %q value is %d bytes, limit is %d", enginerr.ValueTooLong, col.Name, len(data), col.Width)
			}
			bx.PutU16(out[off:off+2], uint16(len(data)))
			copy(out[off+2:off+2+len(data)], data)
			// bytes beyond len(data) up to Width are left zero, per spec.
		default:
			return nil, fmt.Errorf("%w: unknown column type %d", enginerr.Unsupported, col.Type)
		}
		off += w
	}
	return out, nil
}

// Decode is the inverse of Encode. Any deviation from the encoding rules
// of spec §4.2 (a nonzero boolean byte other than 0x01, nonzero VARCHAR
// padding) is rejected as CorruptRow rather than silently tolerated.
func Decode(s Schema, buf []byte) (Row, error) {
	if len(buf) != s.Width() {
		return nil, fmt.Errorf("%w: buffer is %d bytes, schema width is %d", enginerr.CorruptRow, len(buf), s.Width())
	}

	row := make(Row, len(s.Columns))
	off := 0
	for i, col := range s.Columns {
		w := col.EncodedWidth()
		switch col.Type {
		case TypeInt:
			row[i] = value.Int(int64(bx.U64(buf[off : off+8])))
		case TypeBoolean:
			b := buf[off]
			if b != 0x00 && b != 0x01 {
				return nil, fmt.Errorf("%w: column %q has invalid boolean byte 0x%02x", enginerr.CorruptRow, col.Name, b)
			}
			row[i] = value.Bool(b == 0x01)
		case TypeVarchar:
			l := int(bx.U16(buf[off : off+2]))
			if l > col.Width {
				return nil, fmt.Errorf("%w: column %q declares length %d exceeding width %d", enginerr.CorruptRow, col.Name, l, col.Width)
			}
			data := buf[off+2 : off+2+l]
			for _, b := range buf[off+2+l : off+2+col.Width] {
				if b != 0 {
					return nil, fmt.Errorf("%w: column %q has non-zero padding", enginerr.CorruptRow, col.Name)
				}
			}
			row[i] = value.Text(string(data))
		default:
			return nil, fmt.Errorf("%w: unknown column type %d", enginerr.Unsupported, col.Type)
		}
		off += w
	}
	return row, nil
}
