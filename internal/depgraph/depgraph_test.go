package depgraph

import "testing"

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func indexOfTest(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func TestCreationOrderAcyclic(t *testing.T) {
	// orders -> customers (orders has FK to customers)
	g := New([]string{"orders", "customers"}, []Edge{
		{Table: "orders", References: "customers", FK: "fk_orders_customer"},
	})
	order, err := g.CreationOrder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if indexOfTest(order, "customers") > indexOfTest(order, "orders") {
		t.Errorf("customers must precede orders, got %v", order)
	}
}

func TestCreationOrderDetectsCycle(t *testing.T) {
	g := New([]string{"authors", "books"}, []Edge{
		{Table: "authors", References: "books", FK: "fk_latest_book"},
		{Table: "books", References: "authors", FK: "fk_author"},
	})
	_, err := g.CreationOrder()
	if err == nil {
		t.Fatal("expected a cycle error")
	}
	if _, ok := err.(*CycleError); !ok {
		t.Errorf("expected *CycleError, got %T", err)
	}
}

func TestSelfReferenceNeverParticipatesInCycle(t *testing.T) {
	g := New([]string{"categories"}, []Edge{
		{Table: "categories", References: "categories", FK: "fk_parent"},
	})
	_, err := g.CreationOrder()
	if err != nil {
		t.Errorf("self-reference should not be treated as a cycle: %v", err)
	}
}

func TestDeletionOrderIsReverseOfCreation(t *testing.T) {
	g := New([]string{"orders", "customers"}, []Edge{
		{Table: "orders", References: "customers", FK: "fk_orders_customer"},
	})
	creation, _ := g.CreationOrder()
	deletion, _ := g.DeletionOrder()
	if len(creation) != len(deletion) {
		t.Fatal("length mismatch")
	}
	for i := range creation {
		if creation[i] != deletion[len(deletion)-1-i] {
			t.Errorf("deletion order is not the reverse of creation order: %v vs %v", creation, deletion)
		}
	}
}

func TestCreationOrderWithDetachmentMakesGraphAcyclic(t *testing.T) {
	g := New([]string{"authors", "books"}, []Edge{
		{Table: "authors", References: "books", FK: "fk_latest_book"},
		{Table: "books", References: "authors", FK: "fk_author"},
	})

	result := g.CreationOrderWithDetachment()
	if len(result.DeferredFKs) == 0 {
		t.Fatal("expected at least one deferred FK to break the cycle")
	}
	if len(result.Order) != 2 {
		t.Fatalf("expected both tables in the order, got %v", result.Order)
	}

	kept := []Edge{}
	for _, e := range g.Edges {
		deferred := false
		for _, d := range result.DeferredFKs {
			if d.FK == e.FK {
				deferred = true
			}
		}
		if !deferred {
			kept = append(kept, e)
		}
	}
	reduced := New(g.Tables, kept)
	if _, err := reduced.CreationOrder(); err != nil {
		t.Errorf("residual graph after detachment must be acyclic: %v", err)
	}
}

func TestDeletionOrderWithDetachmentSymmetric(t *testing.T) {
	g := New([]string{"authors", "books"}, []Edge{
		{Table: "authors", References: "books", FK: "fk_latest_book"},
		{Table: "books", References: "authors", FK: "fk_author"},
	})
	r := g.DeletionOrderWithDetachment()
	if len(r.DeferredFKs) == 0 {
		t.Fatal("expected deferred FKs")
	}
	if !contains(r.Order, "authors") || !contains(r.Order, "books") {
		t.Fatalf("expected both tables in deletion order, got %v", r.Order)
	}
}
