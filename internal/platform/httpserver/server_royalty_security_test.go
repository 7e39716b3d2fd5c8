package httpserver

import (
	"encoding/json"
	"net/http"
	"testing"

	royaltyhttp "curio/contexts/trading-core/royalty-registry/transport/http"
)

func TestRoyaltySetRequiresUserHeader(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPut, "/royalties", "",
		[]byte(`{"type_tag":"collectibles::card","creator":"carol","basis_points":500}`))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRoyaltySetRejectsNonAdmin(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPut, "/royalties", "mallory",
		[]byte(`{"type_tag":"collectibles::card","creator":"mallory","basis_points":500}`))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRoyaltyRateAbove10000Returns400(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPut, "/royalties", "registry-admin",
		[]byte(`{"type_tag":"collectibles::card","creator":"carol","basis_points":10001}`))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRoyaltyUpsertAndLookup(t *testing.T) {
	server := newTestServer()

	setRR := doJSON(t, server, http.MethodPut, "/royalties", "registry-admin",
		[]byte(`{"type_tag":"collectibles::card","creator":"carol","basis_points":500}`))
	if setRR.Code != http.StatusOK {
		t.Fatalf("expected 200 set, got %d body=%s", setRR.Code, setRR.Body.String())
	}

	// Replace the whole entry.
	replaceRR := doJSON(t, server, http.MethodPut, "/royalties", "registry-admin",
		[]byte(`{"type_tag":"collectibles::card","creator":"dave","basis_points":250}`))
	if replaceRR.Code != http.StatusOK {
		t.Fatalf("expected 200 replace, got %d body=%s", replaceRR.Code, replaceRR.Body.String())
	}

	getRR := doJSON(t, server, http.MethodGet, "/royalties/collectibles::card", "", nil)
	if getRR.Code != http.StatusOK {
		t.Fatalf("expected 200 get, got %d body=%s", getRR.Code, getRR.Body.String())
	}
	var resp royaltyhttp.GetRoyaltyResponse
	if err := json.Unmarshal(getRR.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode get response: %v", err)
	}
	if resp.Entry.Creator != "dave" || resp.Entry.BasisPoints != 250 {
		t.Fatalf("entry = %+v, want dave at 250 bps", resp.Entry)
	}
}

func TestRoyaltyUnknownTypeReturns404(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodGet, "/royalties/unknown::type", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRoyaltyAdminHandover(t *testing.T) {
	server := newTestServer()

	rr := doJSON(t, server, http.MethodPost, "/royalties/admin", "registry-admin",
		[]byte(`{"new_admin":"admin-2"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 handover, got %d body=%s", rr.Code, rr.Body.String())
	}

	// The old admin lost write access.
	oldRR := doJSON(t, server, http.MethodPut, "/royalties", "registry-admin",
		[]byte(`{"type_tag":"collectibles::card","creator":"carol","basis_points":500}`))
	if oldRR.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for old admin, got %d body=%s", oldRR.Code, oldRR.Body.String())
	}
}
