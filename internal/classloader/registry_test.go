package classloader

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// memArchive is a minimal in-memory vmhost.ArchiveReader for registry tests.
type memArchive struct {
	entries map[string][]byte
}

func (a *memArchive) ReadEntry(path string) ([]byte, bool, error) {
	data, ok := a.entries[path]
	return data, ok, nil
}
func (a *memArchive) Close() error { return nil }

// cpBuilder assembles a minimal constant pool plus a field table, enough to
// exercise field-offset linking without a full method/code table.
type cpBuilder struct {
	pool [][]byte
}

func (b *cpBuilder) addUtf8(s string) uint16 {
	var e bytes.Buffer
	e.WriteByte(1) // CPUtf8
	binary.Write(&e, binary.BigEndian, uint16(len(s)))
	e.WriteString(s)
	b.pool = append(b.pool, e.Bytes())
	return uint16(len(b.pool))
}

func (b *cpBuilder) addClass(nameIdx uint16) uint16 {
	var e bytes.Buffer
	e.WriteByte(7) // CPClass
	binary.Write(&e, binary.BigEndian, nameIdx)
	b.pool = append(b.pool, e.Bytes())
	return uint16(len(b.pool))
}

type fieldSpec struct {
	name, descriptor string
	static           bool
}

func buildClassWithFields(className, superName string, fields []fieldSpec) []byte {
	b := &cpBuilder{}
	selfNameIdx := b.addUtf8(className)
	selfClassIdx := b.addClass(selfNameIdx)
	var superClassIdx uint16
	if superName != "" {
		superNameIdx := b.addUtf8(superName)
		superClassIdx = b.addClass(superNameIdx)
	}

	type fieldIdx struct{ nameIdx, descIdx uint16 }
	var idxs []fieldIdx
	for _, f := range fields {
		idxs = append(idxs, fieldIdx{b.addUtf8(f.name), b.addUtf8(f.descriptor)})
	}

	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, uint32(0xCAFEBABE))
	binary.Write(&out, binary.BigEndian, uint16(0))
	binary.Write(&out, binary.BigEndian, uint16(52))
	binary.Write(&out, binary.BigEndian, uint16(len(b.pool)+1))
	for _, e := range b.pool {
		out.Write(e)
	}
	binary.Write(&out, binary.BigEndian, uint16(0x0021))
	binary.Write(&out, binary.BigEndian, selfClassIdx)
	binary.Write(&out, binary.BigEndian, superClassIdx)
	binary.Write(&out, binary.BigEndian, uint16(0)) // interfaces

	binary.Write(&out, binary.BigEndian, uint16(len(fields)))
	for i, f := range fields {
		var flags uint16
		if f.static {
			flags = 0x0008
		}
		binary.Write(&out, binary.BigEndian, flags)
		binary.Write(&out, binary.BigEndian, idxs[i].nameIdx)
		binary.Write(&out, binary.BigEndian, idxs[i].descIdx)
		binary.Write(&out, binary.BigEndian, uint16(0)) // no attributes
	}

	binary.Write(&out, binary.BigEndian, uint16(0)) // methods
	binary.Write(&out, binary.BigEndian, uint16(0)) // class attributes
	return out.Bytes()
}

func TestResolveFromArchiveAndLinksFields(t *testing.T) {
	super := buildClassWithFields("widgets/Base", "", []fieldSpec{{"id", "I", false}})
	sub := buildClassWithFields("widgets/Counter", "widgets/Base", []fieldSpec{
		{"count", "I", false},
		{"MAX", "I", true},
	})
	archive := &memArchive{entries: map[string][]byte{
		"widgets/Base.class":    super,
		"widgets/Counter.class": sub,
	}}
	reg := NewRegistry(archive, nil)

	lc, err := reg.Resolve("widgets/Counter")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if lc.SlotCount() != 2 {
		t.Fatalf("SlotCount() = %d, want 2 (inherited 'id' + own 'count')", lc.SlotCount())
	}
	if _, ok := lc.FieldOffset(FieldKey("id", "I")); !ok {
		t.Error("inherited field 'id' should be present in the subclass's offset table")
	}
	if idx, ok := lc.FieldOffset(FieldKey("count", "I")); !ok || idx != 1 {
		t.Errorf("own field 'count' offset = (%d, %v), want (1, true)", idx, ok)
	}
	if _, ok := lc.Statics[FieldKey("MAX", "I")]; !ok {
		t.Error("static field 'MAX' should be seeded into Statics, not the offset table")
	}

	again, err := reg.Resolve("widgets/Counter")
	if err != nil || again != lc {
		t.Error("Resolve should be idempotent, returning the cached *LinkedClass")
	}
}

func TestResolveRootClass(t *testing.T) {
	reg := NewRegistry(nil, nil)
	lc, err := reg.Resolve(RootClassName)
	if err != nil {
		t.Fatalf("Resolve(RootClassName): %v", err)
	}
	if lc.State != Initialized {
		t.Error("the root class should resolve already Initialized")
	}
}

func TestResolveArrayClass(t *testing.T) {
	reg := NewRegistry(nil, nil)
	lc, err := reg.Resolve("[I")
	if err != nil {
		t.Fatalf("Resolve([I): %v", err)
	}
	if !lc.IsArray {
		t.Error("an array-descriptor name should resolve to an IsArray class")
	}
	if lc.Super == nil || lc.Super.Name != RootClassName {
		t.Error("array classes should have java/lang/Object as their superclass")
	}
}

func TestResolveBootstrapClass(t *testing.T) {
	reg := NewRegistry(nil, nil)
	lc, err := reg.Resolve("java/lang/String")
	if err != nil {
		t.Fatalf("Resolve(java/lang/String): %v", err)
	}
	if _, ok := lc.Methods[MethodAndDescriptorKey("length", "()I")]; !ok {
		t.Error("synthesised String class should seed a native length()I stub")
	}
}

func TestResolveUnknownClassNotFound(t *testing.T) {
	reg := NewRegistry(nil, nil)
	_, err := reg.Resolve("nonexistent/Thing")
	if _, ok := err.(*ClassNotFound); !ok {
		t.Fatalf("expected *ClassNotFound, got %T (%v)", err, err)
	}
}

func TestResolveRejectsDescriptorAsClassName(t *testing.T) {
	reg := NewRegistry(nil, nil)
	_, err := reg.Resolve("Ljava/lang/String;")
	if _, ok := err.(*InvalidClassName); !ok {
		t.Fatalf("expected *InvalidClassName, got %T (%v)", err, err)
	}
}

func TestIsAssignable(t *testing.T) {
	super := buildClassWithFields("widgets/Base", "", nil)
	sub := buildClassWithFields("widgets/Counter", "widgets/Base", nil)
	archive := &memArchive{entries: map[string][]byte{
		"widgets/Base.class":    super,
		"widgets/Counter.class": sub,
	}}
	reg := NewRegistry(archive, nil)
	baseLC, _ := reg.Resolve("widgets/Base")
	subLC, _ := reg.Resolve("widgets/Counter")

	if !IsAssignable(subLC, baseLC) {
		t.Error("a subclass instance should be assignable to its superclass")
	}
	if IsAssignable(baseLC, subLC) {
		t.Error("a superclass instance should not be assignable to a subclass")
	}
	objLC, _ := reg.Resolve(RootClassName)
	if !IsAssignable(subLC, objLC) {
		t.Error("every class should be assignable to java/lang/Object")
	}
}

func TestAppArchiveShadowsBootArchive(t *testing.T) {
	appVersion := buildClassWithFields("shared/Thing", "", []fieldSpec{{"a", "I", false}})
	bootVersion := buildClassWithFields("shared/Thing", "", []fieldSpec{{"a", "I", false}, {"b", "I", false}})
	app := &memArchive{entries: map[string][]byte{"shared/Thing.class": appVersion}}
	boot := &memArchive{entries: map[string][]byte{"shared/Thing.class": bootVersion}}
	reg := NewRegistry(app, boot)

	lc, err := reg.Resolve("shared/Thing")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if lc.SlotCount() != 1 {
		t.Fatalf("SlotCount() = %d, want 1 (application archive's version should win)", lc.SlotCount())
	}
}
