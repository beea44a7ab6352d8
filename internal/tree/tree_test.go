package tree

import (
	"testing"

	"github.com/corvidlabs/dnsflow/internal/wire"
)

func aRecord(name wire.Name, ip byte) wire.Record {
	return wire.Record{
		Header: wire.RHeader{Name: name, Type: wire.RTypeA, Class: wire.ClassIN, TTL: 300},
		Data:   wire.RDataA{Addr: []byte{192, 0, 2, ip}},
	}
}

func TestRootExistsAtIndexZeroWithNoParent(t *testing.T) {
	tr := New()
	root := tr.Root()
	if root.Index() != 0 {
		t.Fatalf("root index = %d, want 0", root.Index())
	}
	if !root.IsRoot() {
		t.Fatal("root.IsRoot() = false")
	}
}

func TestInsertAndFind(t *testing.T) {
	tr := New()
	name := wire.MustParseName("www.example.com.")
	tr.Insert(name, aRecord(name, 1))

	idx, ok := tr.FindIndex(name)
	if !ok {
		t.Fatal("FindIndex failed to find an inserted name")
	}
	node := tr.NodeAt(idx)
	if !node.HasRecords() || len(node.Records()) != 1 {
		t.Fatalf("expected one record at the inserted node, got %d", len(node.Records()))
	}
}

func TestFindMissingNameFails(t *testing.T) {
	tr := New()
	tr.Insert(wire.MustParseName("example.com."), aRecord(wire.MustParseName("example.com."), 1))

	if _, ok := tr.FindIndex(wire.MustParseName("other.com.")); ok {
		t.Fatal("expected FindIndex to fail for a name never inserted")
	}
	if _, ok := tr.FindIndex(wire.MustParseName("sub.example.com.")); ok {
		t.Fatal("expected FindIndex to fail for a name one level deeper than any inserted node")
	}
}

func TestSharedPrefixesShareIntermediateNodes(t *testing.T) {
	tr := New()
	www := wire.MustParseName("www.example.com.")
	mail := wire.MustParseName("mail.example.com.")
	tr.Insert(www, aRecord(www, 1))
	tr.Insert(mail, aRecord(mail, 2))

	exampleIdx, ok := tr.FindIndex(wire.MustParseName("example.com."))
	if !ok {
		t.Fatal("expected an intermediate node for example.com.")
	}

	wwwIdx, _ := tr.FindIndex(www)
	mailIdx, _ := tr.FindIndex(mail)

	wwwChild, ok := tr.NodeAt(exampleIdx).Child("www")
	if !ok || wwwChild != wwwIdx {
		t.Errorf("example.com's www child should point at the www node")
	}
	mailChild, ok := tr.NodeAt(exampleIdx).Child("mail")
	if !ok || mailChild != mailIdx {
		t.Errorf("example.com's mail child should point at the mail node")
	}
}

func TestInsertManyAppendsAllRecords(t *testing.T) {
	tr := New()
	name := wire.MustParseName("example.com.")
	recs := []wire.Record{aRecord(name, 1), aRecord(name, 2), aRecord(name, 3)}
	tr.InsertMany(name, recs)

	node := tr.FindNode(name)
	if node == nil {
		t.Fatal("FindNode returned nil after InsertMany")
	}
	if len(node.Records()) != 3 {
		t.Fatalf("got %d records, want 3", len(node.Records()))
	}
}

func TestInsertionOrderPreservedWithinNode(t *testing.T) {
	tr := New()
	name := wire.MustParseName("example.com.")
	tr.Insert(name, aRecord(name, 9))
	tr.Insert(name, aRecord(name, 1))
	tr.Insert(name, aRecord(name, 5))

	node := tr.FindNode(name)
	got := make([]byte, len(node.Records()))
	for i, r := range node.Records() {
		got[i] = r.Data.(wire.RDataA).Addr[3]
	}
	want := []byte{9, 1, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("record order = %v, want %v", got, want)
		}
	}
}
