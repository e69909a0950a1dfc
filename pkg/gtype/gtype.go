// Package gtype describes the logical and physical type system shared by
// the storage and execution layers: a tagged {physical kind, nested info}
// description per value, distinguishing e.g. SERIAL from INT64 even though
// both share the INT64 physical kind.
package gtype

import "fmt"

// PhysicalKind is the wire/in-memory representation family for a value.
// Logical types that differ (SERIAL vs INT64, MAP vs LIST<STRUCT<K,V>>)
// can share a PhysicalKind.
type PhysicalKind uint8

const (
	BOOL PhysicalKind = iota
	INT8
	INT16
	INT32
	INT64
	INT128
	UINT8
	UINT16
	UINT32
	UINT64
	FLOAT
	DOUBLE
	DATE       // days since epoch, int32
	TIMESTAMP  // microseconds since epoch, int64
	INTERVAL   // {months int32, days int32, micros int64}
	INTERNAL_ID // {offset uint64, table uint64}
	STRING     // fat pointer, see pkg/storage/overflow
	LIST       // variable-length, {offset,size} into a child vector/chunk
	ARRAY      // fixed-size, child values packed contiguously
	STRUCT     // ordered named fields, one child chunk/vector per field
)

// FixedWidth returns the in-chunk byte width of a physical kind, or 0 for
// kinds whose storage width is not determined by the kind alone (ARRAY
// and STRUCT derive their width from child layout; LIST stores an 8-byte
// {offset, size} entry; STRING uses the 16-byte fat pointer width, see
// pkg/storage/overflow.FatPointerSize).
func (k PhysicalKind) FixedWidth() int {
	switch k {
	case BOOL:
		return 1 // one byte per value before bitpacking; bitpacking is a page-level codec, not a chunk-level width
	case INT8, UINT8:
		return 1
	case INT16, UINT16:
		return 2
	case INT32, UINT32, FLOAT, DATE:
		return 4
	case INT64, UINT64, DOUBLE, TIMESTAMP:
		return 8
	case INTERVAL:
		return 16
	case INTERNAL_ID:
		return 16
	case INT128:
		return 16
	case STRING:
		return 16 // fat pointer
	case LIST:
		return 8 // {offset uint32, size uint32}
	default:
		return 0
	}
}

// IsInteger reports whether the physical kind is carried as an integer in
// a StorageValue (eligible for bitpacking / constant compression min-max).
func (k PhysicalKind) IsInteger() bool {
	switch k {
	case INT8, INT16, INT32, INT64, INT128, UINT8, UINT16, UINT32, UINT64, DATE, TIMESTAMP, INTERNAL_ID:
		return true
	default:
		return false
	}
}

func (k PhysicalKind) IsSigned() bool {
	switch k {
	case INT8, INT16, INT32, INT64, INT128, DATE, TIMESTAMP:
		return true
	default:
		return false
	}
}

// LogicalTypeID distinguishes logical types that share a PhysicalKind.
type LogicalTypeID uint16

const (
	ID_ANY LogicalTypeID = iota
	ID_BOOL
	ID_INT8
	ID_INT16
	ID_INT32
	ID_INT64
	ID_INT128
	ID_SERIAL // physically INT64, but auto-increments and is never user-assignable
	ID_UINT8
	ID_UINT16
	ID_UINT32
	ID_UINT64
	ID_FLOAT
	ID_DOUBLE
	ID_DATE
	ID_TIMESTAMP
	ID_INTERVAL
	ID_INTERNAL_ID
	ID_STRING
	ID_LIST
	ID_ARRAY
	ID_STRUCT
	ID_MAP // physically LIST<STRUCT<key,value>>
)

// StructField is one ordered, named member of a STRUCT logical type.
type StructField struct {
	Name string
	Type LogicalType
}

// LogicalType is the tagged description consumed throughout the storage
// and execution layers.
type LogicalType struct {
	ID    LogicalTypeID
	Kind  PhysicalKind
	Child *LogicalType  // element type for LIST/ARRAY
	Size  uint32        // ARRAY fixed element count; unused otherwise
	Fields []StructField // STRUCT fields, in declared order
}

func Bool() LogicalType      { return LogicalType{ID: ID_BOOL, Kind: BOOL} }
func Int8() LogicalType      { return LogicalType{ID: ID_INT8, Kind: INT8} }
func Int16() LogicalType     { return LogicalType{ID: ID_INT16, Kind: INT16} }
func Int32() LogicalType     { return LogicalType{ID: ID_INT32, Kind: INT32} }
func Int64() LogicalType     { return LogicalType{ID: ID_INT64, Kind: INT64} }
func Int128Type() LogicalType { return LogicalType{ID: ID_INT128, Kind: INT128} }
func Serial() LogicalType    { return LogicalType{ID: ID_SERIAL, Kind: INT64} }
func UInt8() LogicalType     { return LogicalType{ID: ID_UINT8, Kind: UINT8} }
func UInt16() LogicalType    { return LogicalType{ID: ID_UINT16, Kind: UINT16} }
func UInt32() LogicalType    { return LogicalType{ID: ID_UINT32, Kind: UINT32} }
func UInt64() LogicalType    { return LogicalType{ID: ID_UINT64, Kind: UINT64} }
func Float() LogicalType     { return LogicalType{ID: ID_FLOAT, Kind: FLOAT} }
func Double() LogicalType    { return LogicalType{ID: ID_DOUBLE, Kind: DOUBLE} }
func Date() LogicalType      { return LogicalType{ID: ID_DATE, Kind: DATE} }
func Timestamp() LogicalType { return LogicalType{ID: ID_TIMESTAMP, Kind: TIMESTAMP} }
func Interval() LogicalType  { return LogicalType{ID: ID_INTERVAL, Kind: INTERVAL} }
func InternalID() LogicalType {
	return LogicalType{ID: ID_INTERNAL_ID, Kind: INTERNAL_ID}
}
func String() LogicalType { return LogicalType{ID: ID_STRING, Kind: STRING} }

func List(child LogicalType) LogicalType {
	c := child
	return LogicalType{ID: ID_LIST, Kind: LIST, Child: &c}
}

func Array(child LogicalType, size uint32) LogicalType {
	c := child
	return LogicalType{ID: ID_ARRAY, Kind: ARRAY, Child: &c, Size: size}
}

func Struct(fields ...StructField) LogicalType {
	return LogicalType{ID: ID_STRUCT, Kind: STRUCT, Fields: fields}
}

// Map is logically LIST<STRUCT<key,value>>; it shares LIST's physical kind
// and chunk layout entirely, distinguished only by ID.
func Map(key, value LogicalType) LogicalType {
	inner := Struct(StructField{Name: "key", Type: key}, StructField{Name: "value", Type: value})
	lt := List(inner)
	lt.ID = ID_MAP
	return lt
}

func (t LogicalType) String() string {
	switch t.Kind {
	case LIST:
		return fmt.Sprintf("LIST<%s>", t.Child.String())
	case ARRAY:
		return fmt.Sprintf("ARRAY<%s,%d>", t.Child.String(), t.Size)
	case STRUCT:
		return fmt.Sprintf("STRUCT(%d fields)", len(t.Fields))
	default:
		return fmt.Sprintf("kind(%d)", t.Kind)
	}
}

// Equal reports structural equality (used by catalog/schema comparisons).
func (t LogicalType) Equal(o LogicalType) bool {
	if t.ID != o.ID || t.Kind != o.Kind || t.Size != o.Size {
		return false
	}
	if (t.Child == nil) != (o.Child == nil) {
		return false
	}
	if t.Child != nil && !t.Child.Equal(*o.Child) {
		return false
	}
	if len(t.Fields) != len(o.Fields) {
		return false
	}
	for i := range t.Fields {
		if t.Fields[i].Name != o.Fields[i].Name || !t.Fields[i].Type.Equal(o.Fields[i].Type) {
			return false
		}
	}
	return true
}
