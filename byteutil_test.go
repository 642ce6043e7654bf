package attrspace

import (
	"reflect"
	"testing"
)

func TestBytesBuilder_Write(t *testing.T) {
	var bb bytesBuilder
	n, err := bb.Write([]byte{1, 2, 3})
	if err != nil || n != 3 {
		t.Fatalf("Write = (%d, %v), wanted (3, nil)", n, err)
	}
	n, err = bb.Write([]byte{4, 5})
	if err != nil || n != 2 {
		t.Fatalf("Write = (%d, %v), wanted (2, nil)", n, err)
	}
	if !reflect.DeepEqual(bb.Buf, []byte{1, 2, 3, 4, 5}) {
		t.Fatalf("bb.Buf = %x, wanted 0102030405", bb.Buf)
	}
}

func TestByteUtil_AppendRaw(t *testing.T) {
	src := []byte{0xAA, 0xBB, 0xCC}
	buf := appendRaw(nil, src)
	if !reflect.DeepEqual(buf, src) {
		t.Fatalf("appendRaw = %x, wanted %x", buf, src)
	}

	buf = appendRaw(buf, []byte{0xDD})
	if !reflect.DeepEqual(buf, []byte{0xAA, 0xBB, 0xCC, 0xDD}) {
		t.Fatalf("appendRaw (append) = %x, wanted aabbccdd", buf)
	}
}

func TestGrowReusesCapacity(t *testing.T) {
	buf := make([]byte, 0, 4)
	off, buf := grow(buf, 2)
	if off != 0 || len(buf) != 2 {
		t.Fatalf("grow = (off=%d, len=%d), wanted (0, 2)", off, len(buf))
	}
	off, buf = grow(buf, 4)
	if off != 2 || len(buf) != 6 {
		t.Fatalf("grow = (off=%d, len=%d), wanted (2, 6)", off, len(buf))
	}
}
