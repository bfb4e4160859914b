package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"pdv/internal/ledger/memory"
	"pdv/internal/session"
)

// 2025-03-05 is a Wednesday.
var fixedNow = time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := session.NewStore(session.StoreConfig{
		TTL:      time.Hour,
		MaxSize:  10,
		Location: time.UTC,
		Now:      func() time.Time { return fixedNow },
	}, memory.NewFactory(), nil)
	srv := NewServer(":0", store, Options{RateLimitPerMinute: 1000}, nil)
	t.Cleanup(func() {
		srv.rateLimiter.Stop()
		store.Close()
	})
	return srv
}

// client keeps the session cookie between requests like a browser would.
type client struct {
	h      http.Handler
	cookie *http.Cookie
}

func (c *client) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rr := httptest.NewRecorder()
	c.h.ServeHTTP(rr, req)
	for _, ck := range rr.Result().Cookies() {
		if ck.Name == sessionCookieName {
			c.cookie = ck
		}
	}
	return rr
}

func (c *client) view(t *testing.T) apiView {
	t.Helper()
	rr := c.do(http.MethodGet, "/api/view", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("/api/view status=%d", rr.Code)
	}
	var v apiView
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	return v
}

func sale(product, price string) url.Values {
	return url.Values{"product": {product}, "price": {price}}
}

func TestIndexAndHealth(t *testing.T) {
	srv := newTestServer(t)
	c := &client{h: srv.Handler}

	rr := c.do(http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"PDV Bazaar Poniente", "Ventas del Miércoles", "Pantalón", "No hay ventas registradas para este día."} {
		if !strings.Contains(body, want) {
			t.Fatalf("index body missing %q", want)
		}
	}
	if c.cookie == nil || c.cookie.Value == "" {
		t.Fatalf("session cookie not set")
	}
	if rr.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("index should not be cached")
	}

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		rr := c.do(http.MethodGet, path, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	if rr := c.do(http.MethodGet, "/nope", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown path status=%d", rr.Code)
	}
}

func TestSubmitSaleAndAggregate(t *testing.T) {
	srv := newTestServer(t)
	c := &client{h: srv.Handler}

	rr := c.do(http.MethodPost, "/sales", sale("Falda", "10"))
	if rr.Code != http.StatusOK {
		t.Fatalf("sale status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "Venta registrada: Falda por $10.00") {
		t.Fatalf("unexpected banner %q", rr.Body.String())
	}
	if trig := rr.Header().Get("HX-Trigger"); !strings.Contains(trig, `"sale:recorded":{"date":"2025-03-05"}`) {
		t.Fatalf("HX-Trigger = %s", trig)
	}

	c.do(http.MethodPost, "/sales", sale("Falda", "5"))
	c.do(http.MethodPost, "/sales", sale("Blusa", "20"))

	v := c.view(t)
	if len(v.DailySales) != 3 {
		t.Fatalf("daily sales = %d", len(v.DailySales))
	}
	want := map[string]string{"Falda": "$15.00", "Blusa": "$20.00"}
	if diff := cmp.Diff(want, v.DailyChart.Totals); diff != "" {
		t.Fatalf("daily totals mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, v.WeeklyChart.Totals); diff != "" {
		t.Fatalf("weekly totals mismatch (-want +got):\n%s", diff)
	}
	if v.WeekStart != "2025-03-03" || v.WeekEnd != "2025-03-09" {
		t.Fatalf("week = %s..%s", v.WeekStart, v.WeekEnd)
	}

	daily := c.do(http.MethodGet, "/ui/daily", nil).Body.String()
	for _, s := range []string{"Ventas por Producto", "Blusa", "$15.00", "width: 100%"} {
		if !strings.Contains(daily, s) {
			t.Fatalf("daily partial missing %q", s)
		}
	}
	if weekly := c.do(http.MethodGet, "/ui/weekly", nil).Body.String(); !strings.Contains(weekly, "Ventas Semanales") {
		t.Fatalf("weekly partial missing chart title")
	}

	metrics := c.do(http.MethodGet, "/metrics", nil).Body.String()
	if !strings.Contains(metrics, "pdv_sales_recorded_total 3") {
		t.Fatalf("metrics missing sales count:\n%s", metrics)
	}
	if !strings.Contains(metrics, "pdv_active_sessions 1") {
		t.Fatalf("metrics missing session gauge:\n%s", metrics)
	}
}

func TestSubmitSaleRejectsInvalidInput(t *testing.T) {
	srv := newTestServer(t)
	c := &client{h: srv.Handler}

	cases := []struct {
		name string
		form url.Values
	}{
		{"zero price", sale("Falda", "0")},
		{"negative price", sale("Falda", "-3")},
		{"garbage price", sale("Falda", "abc")},
		{"empty product", sale("", "10")},
		{"other without name", url.Values{"product": {"Otro"}, "other_product": {"  "}, "price": {"10"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := c.do(http.MethodPost, "/sales", tc.form)
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status=%d", rr.Code)
			}
			if !strings.Contains(rr.Body.String(), "El producto y el precio deben ser válidos.") {
				t.Fatalf("body=%q", rr.Body.String())
			}
			if strings.Contains(rr.Header().Get("HX-Trigger"), "sale:recorded") {
				t.Fatalf("rejected sale must not trigger refresh")
			}
		})
	}

	if v := c.view(t); len(v.DailySales) != 0 {
		t.Fatalf("ledger changed by rejected sales: %+v", v.DailySales)
	}
	if metrics := c.do(http.MethodGet, "/metrics", nil).Body.String(); !strings.Contains(metrics, "sales_rejected_total 5") {
		t.Fatalf("metrics missing rejections:\n%s", metrics)
	}
}

func TestSubmitSaleOtherProduct(t *testing.T) {
	srv := newTestServer(t)
	c := &client{h: srv.Handler}

	rr := c.do(http.MethodPost, "/sales", url.Values{
		"product":       {"Otro"},
		"other_product": {"bufanda   roja"},
		"price":         {"3,5"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "Venta registrada: Bufanda roja por $3.50") {
		t.Fatalf("unexpected banner %q", rr.Body.String())
	}
}

func TestSubmitSaleAcceptsAccentedProduct(t *testing.T) {
	srv := newTestServer(t)
	c := &client{h: srv.Handler}

	rr := c.do(http.MethodPost, "/sales", url.Values{
		"product":       {"Otro"},
		"other_product": {strings.Repeat("ó", 60)},
		"price":         {"10"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if got := c.view(t).DailySales; len(got) != 1 || got[0].Price != "$10.00" {
		t.Fatalf("daily sales = %+v", got)
	}
}

func TestSubmitSaleJSONBody(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(`{"product":"Blusa","price":12.5}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "Blusa por $12.50") {
		t.Fatalf("unexpected banner %q", rr.Body.String())
	}
}

func TestSelectDay(t *testing.T) {
	srv := newTestServer(t)
	c := &client{h: srv.Handler}

	rr := c.do(http.MethodPost, "/day", url.Values{"day": {"Lunes"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Ventas del Lunes") {
		t.Fatalf("dashboard not re-rendered for Lunes")
	}
	if trig := rr.Header().Get("HX-Trigger"); !strings.Contains(trig, `"date":"2025-03-03"`) {
		t.Fatalf("HX-Trigger = %s", trig)
	}

	c.do(http.MethodPost, "/sales", sale("Camisa", "8"))
	v := c.view(t)
	if v.SelectedDay != "Lunes" || v.SelectedDate != "2025-03-03" {
		t.Fatalf("selected = %s %s", v.SelectedDay, v.SelectedDate)
	}
	if len(v.DailySales) != 1 || v.DailySales[0].Date != "2025-03-03" {
		t.Fatalf("sale not recorded on selected day: %+v", v.DailySales)
	}

	rr = c.do(http.MethodPost, "/day", url.Values{"day": {"Funday"}})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown day status=%d", rr.Code)
	}
	if v := c.view(t); v.SelectedDay != "Lunes" {
		t.Fatalf("unknown day changed selection to %s", v.SelectedDay)
	}
}

func TestSubmitNote(t *testing.T) {
	srv := newTestServer(t)
	c := &client{h: srv.Handler}

	rr := c.do(http.MethodPost, "/notes", url.Values{"note": {"   "}})
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if rr.Header().Get("HX-Trigger") != "" {
		t.Fatalf("blank note must not trigger: %s", rr.Header().Get("HX-Trigger"))
	}
	if !strings.Contains(rr.Body.String(), "Sin notas.") {
		t.Fatalf("blank note was stored")
	}

	rr = c.do(http.MethodPost, "/notes", url.Values{"note": {"Restock blue skirts"}})
	if !strings.Contains(rr.Body.String(), "1. Restock blue skirts") {
		t.Fatalf("notes partial = %q", rr.Body.String())
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), `"note:added":{"count":1}`) {
		t.Fatalf("HX-Trigger = %s", rr.Header().Get("HX-Trigger"))
	}

	c.do(http.MethodPost, "/notes", url.Values{"note": {"Call supplier"}})
	if diff := cmp.Diff([]string{"1. Restock blue skirts", "2. Call supplier"}, c.view(t).Notes); diff != "" {
		t.Fatalf("notes mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitNoteRejectsOversizedBody(t *testing.T) {
	srv := newTestServer(t)
	c := &client{h: srv.Handler}

	long := strings.Repeat("x", 70000) + "END"
	rr := c.do(http.MethodPost, "/notes", url.Values{"note": {long}})
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status=%d, want %d", rr.Code, http.StatusRequestEntityTooLarge)
	}
	if notes := c.view(t).Notes; len(notes) != 0 {
		t.Fatalf("oversized note was stored (%d notes)", len(notes))
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	srv := newTestServer(t)
	a := &client{h: srv.Handler}
	b := &client{h: srv.Handler}

	a.do(http.MethodPost, "/sales", sale("Vestido", "40"))
	a.do(http.MethodPost, "/notes", url.Values{"note": {"only a"}})

	if v := b.view(t); len(v.DailySales) != 0 || len(v.Notes) != 0 {
		t.Fatalf("session b sees a's data: %+v", v)
	}
	if a.cookie.Value == b.cookie.Value {
		t.Fatalf("sessions share an id")
	}
}

func TestMethodChecks(t *testing.T) {
	srv := newTestServer(t)
	c := &client{h: srv.Handler}

	for _, path := range []string{"/sales", "/day", "/notes"} {
		rr := c.do(http.MethodGet, path, nil)
		if rr.Code != http.StatusMethodNotAllowed {
			t.Fatalf("GET %s status=%d", path, rr.Code)
		}
		if rr.Header().Get("Allow") != http.MethodPost {
			t.Fatalf("GET %s Allow=%q", path, rr.Header().Get("Allow"))
		}
	}
	if rr := c.do(http.MethodPost, "/ui/daily", url.Values{}); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /ui/daily status=%d", rr.Code)
	}
}

func TestRateLimitOnlyAppliesToMutations(t *testing.T) {
	store := session.NewStore(session.StoreConfig{TTL: time.Hour, MaxSize: 10}, memory.NewFactory(), nil)
	srv := NewServer(":0", store, Options{RateLimitPerMinute: 1}, nil)
	defer srv.rateLimiter.Stop()
	defer store.Close()
	c := &client{h: srv.Handler}

	if rr := c.do(http.MethodPost, "/notes", url.Values{"note": {"a"}}); rr.Code != http.StatusOK {
		t.Fatalf("first post status=%d", rr.Code)
	}
	rr := c.do(http.MethodPost, "/notes", url.Values{"note": {"b"}})
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") != "60" {
		t.Fatalf("second post status=%d", rr.Code)
	}
	if rr := c.do(http.MethodGet, "/ui/notes", nil); rr.Code != http.StatusOK {
		t.Fatalf("reads must not be limited, status=%d", rr.Code)
	}
}
