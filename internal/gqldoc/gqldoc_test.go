package gqldoc

import "testing"

func TestInspect_Named(t *testing.T) {
	info, err := Inspect(`query GetCurrentUser { me { id } }`, "")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if info.Name != "GetCurrentUser" || info.Type != "query" {
		t.Errorf("info = %+v", info)
	}
	if info.IsSubscription() {
		t.Error("query reported as subscription")
	}
}

func TestInspect_Shorthand(t *testing.T) {
	info, err := Inspect(`{ me { id } }`, "")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if info.Name != "" || info.Type != "query" {
		t.Errorf("info = %+v", info)
	}
}

func TestInspect_Subscription(t *testing.T) {
	info, err := Inspect(`subscription OnAsset { assetChanged { id } }`, "")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if !info.IsSubscription() {
		t.Errorf("Type = %q, want subscription", info.Type)
	}
}

func TestInspect_MultipleOperations(t *testing.T) {
	doc := `query A { me { id } } mutation B { noop }`
	if _, err := Inspect(doc, ""); err == nil {
		t.Error("expected error without operation name")
	}
	info, err := Inspect(doc, "B")
	if err != nil {
		t.Fatalf("Inspect(B): %v", err)
	}
	if info.Type != "mutation" {
		t.Errorf("Type = %q, want mutation", info.Type)
	}
	if _, err := Inspect(doc, "C"); err == nil {
		t.Error("expected error for unknown operation")
	}
}

func TestInspect_Invalid(t *testing.T) {
	if _, err := Inspect(`query {`, ""); err == nil {
		t.Error("expected parse error")
	}
}

func TestOperationName(t *testing.T) {
	if got := OperationName(`query GetAuthorizedSites { authorizedSites { sites { id } } }`); got != "GetAuthorizedSites" {
		t.Errorf("got %q", got)
	}
	if got := OperationName(`not graphql`); got != "anonymous" {
		t.Errorf("got %q", got)
	}
}
