package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"pdv/internal/config"
	"pdv/internal/core"
	"pdv/internal/log"
	"pdv/internal/session"
)

const invalidSaleMessage = "El producto y el precio deben ser válidos."

// pageData is what every template receives.
type pageData struct {
	StoreName    string
	Products     []string
	OtherProduct string
	View         session.View
}

func (s *Server) pageData(v session.View) pageData {
	return pageData{
		StoreName:    s.opts.StoreName,
		Products:     s.opts.Products,
		OtherProduct: config.OtherProduct,
		View:         v,
	}
}

// viewFor loads the caller's session and derives its view.
func (s *Server) viewFor(w http.ResponseWriter, r *http.Request) (*session.Session, session.View, bool) {
	sess, err := s.sessionFor(w, r)
	if err != nil {
		s.writeSessionError(w, r, err, log.OpCreate)
		return nil, session.View{}, false
	}
	v, err := sess.View(r.Context())
	if err != nil {
		s.writeSessionError(w, r, err, log.OpRender)
		return nil, session.View{}, false
	}
	return sess, v, true
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundError("Página no encontrada").Write(w)
		return
	}
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	_, v, ok := s.viewFor(w, r)
	if !ok {
		return
	}
	s.writeTemplate(w, r, "index.html", s.pageData(v), nil)
}

// handleSelectDay changes the selected day and re-renders the dashboard.
func (s *Server) handleSelectDay(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p, resp := ParseBodyOrFail(r)
	if resp != nil {
		resp.Write(w)
		return
	}

	sess, err := s.sessionFor(w, r)
	if err != nil {
		s.writeSessionError(w, r, err, log.OpCreate)
		return
	}

	day := p.Get("day")
	date, err := sess.SelectDay(r.Context(), day)
	if errors.Is(err, core.ErrUnknownDay) {
		s.log(r).WarnContext(r.Context(), "Unknown day rejected",
			log.FieldSessionID, sess.ID, log.FieldDay, day, log.FieldOperation, log.OpSelectDay)
		UnprocessableEntityError(fmt.Sprintf("Día desconocido: %q", day)).Write(w)
		return
	}
	if err != nil {
		s.writeSessionError(w, r, err, log.OpSelectDay)
		return
	}

	v, err := sess.View(r.Context())
	if err != nil {
		s.writeSessionError(w, r, err, log.OpRender)
		return
	}
	s.log(r).DebugContext(r.Context(), "Day selected",
		log.FieldSessionID, sess.ID, log.FieldDay, v.SelectedDay, log.FieldSaleDate, date.String())

	s.writeTemplate(w, r, "dashboard", s.pageData(v),
		NewHTMXResponse().TriggerDaySelected(v.SelectedDay, date.String()))
}

// handleSubmitSale records a sale on the selected day.
func (s *Server) handleSubmitSale(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p, resp := ParseBodyOrFail(r)
	if resp != nil {
		resp.Write(w)
		return
	}

	sess, err := s.sessionFor(w, r)
	if err != nil {
		s.writeSessionError(w, r, err, log.OpCreate)
		return
	}

	form := ParseSaleForm(p.Get)
	sale, err := sess.SubmitSale(r.Context(), form.Product, form.Price)
	if isInvalidSale(err) {
		s.appMetrics.salesRejected.Inc()
		s.log(r).WithComponent(log.ComponentSale).InfoContext(r.Context(), "Sale rejected",
			log.FieldSessionID, sess.ID,
			log.FieldProduct, form.Product,
			log.FieldPrice, form.Price,
			log.FieldOperation, log.OpValidate,
			log.FieldError, err)
		UnprocessableEntityError(invalidSaleMessage).
			TriggerErrorNotification(invalidSaleMessage).
			Write(w)
		return
	}
	if err != nil {
		s.writeSessionError(w, r, err, log.OpAppend)
		return
	}

	s.appMetrics.salesRecorded.Inc()
	s.events.LogSaleRecorded(r.Context(), sess.ID, sale.Product, sale.Price.Fixed(), sale.Date.String())

	msg := fmt.Sprintf("Venta registrada: %s por %s", sale.Product, sale.Price)
	SuccessBanner(msg).
		TriggerSaleRecorded(sale.Date.String()).
		TriggerFormReset().
		TriggerSuccessNotification(msg).
		Write(w)
}

func isInvalidSale(err error) bool {
	return errors.Is(err, core.ErrEmptyProduct) ||
		errors.Is(err, core.ErrProductTooLong) ||
		errors.Is(err, core.ErrInvalidPrice) ||
		errors.Is(err, core.ErrInvalidDate)
}

// handleSubmitNote appends a note and re-renders the note list. Blank notes
// are ignored without an error.
func (s *Server) handleSubmitNote(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p, resp := ParseBodyOrFail(r)
	if resp != nil {
		resp.Write(w)
		return
	}

	sess, err := s.sessionFor(w, r)
	if err != nil {
		s.writeSessionError(w, r, err, log.OpCreate)
		return
	}

	added := sess.SubmitNote(p.Get("note"))
	v, err := sess.View(r.Context())
	if err != nil {
		s.writeSessionError(w, r, err, log.OpRender)
		return
	}

	b := NewHTMXResponse()
	if added {
		s.appMetrics.notesAdded.Inc()
		s.log(r).WithComponent(log.ComponentNote).InfoContext(r.Context(), "Note added",
			log.FieldSessionID, sess.ID, log.FieldNoteCount, len(v.Notes))
		b.TriggerNoteAdded(len(v.Notes)).TriggerFormReset()
	}
	s.writeTemplate(w, r, "notes", s.pageData(v), b)
}

func (s *Server) handleDailyPartial(w http.ResponseWriter, r *http.Request) {
	s.servePartial(w, r, "daily")
}

func (s *Server) handleWeeklyPartial(w http.ResponseWriter, r *http.Request) {
	s.servePartial(w, r, "weekly")
}

func (s *Server) handleNotesPartial(w http.ResponseWriter, r *http.Request) {
	s.servePartial(w, r, "notes")
}

func (s *Server) servePartial(w http.ResponseWriter, r *http.Request, name string) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	_, v, ok := s.viewFor(w, r)
	if !ok {
		return
	}
	s.writeTemplate(w, r, name, s.pageData(v), nil)
}

// writeTemplate renders name and sends it through b, which may carry triggers.
func (s *Server) writeTemplate(w http.ResponseWriter, r *http.Request, name string, data pageData, b *HTMXResponseBuilder) {
	body, err := s.render(name, data)
	if err != nil {
		s.log(r).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(), "Template execution failed",
			"template", name,
			log.FieldError, err)
		InternalServerError("Error al mostrar la página").Write(w)
		return
	}
	if b == nil {
		b = NewHTMXResponse()
	}
	b.BodyHTML(body).Write(w)
}

type (
	apiView struct {
		StoreName    string    `json:"store_name"`
		SelectedDay  string    `json:"selected_day"`
		SelectedDate string    `json:"selected_date"`
		WeekStart    string    `json:"week_start"`
		WeekEnd      string    `json:"week_end"`
		DailySales   []apiSale `json:"daily_sales"`
		DailyChart   apiChart  `json:"daily_chart"`
		WeeklyChart  apiChart  `json:"weekly_chart"`
		Notes        []string  `json:"notes"`
	}

	apiSale struct {
		Product string `json:"product"`
		Price   string `json:"price"`
		Date    string `json:"date"`
	}

	apiChart struct {
		Title  string            `json:"title"`
		Total  string            `json:"total"`
		Totals map[string]string `json:"totals"`
	}
)

// handleAPIView returns the caller's view model as JSON.
func (s *Server) handleAPIView(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	_, v, ok := s.viewFor(w, r)
	if !ok {
		return
	}

	out := apiView{
		StoreName:    s.opts.StoreName,
		SelectedDay:  v.SelectedDay,
		SelectedDate: v.SelectedDate.String(),
		WeekStart:    v.Week.Start.String(),
		WeekEnd:      v.Week.End.String(),
		DailySales:   []apiSale{},
		DailyChart:   toAPIChart(v.DailyChart),
		WeeklyChart:  toAPIChart(v.WeeklyChart),
		Notes:        []string{},
	}
	for _, row := range v.DailySales {
		out.DailySales = append(out.DailySales, apiSale{Product: row.Product, Price: row.Price, Date: row.Date})
	}
	for _, n := range v.Notes {
		out.Notes = append(out.Notes, n.Line())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(out)
}

func toAPIChart(c session.Chart) apiChart {
	out := apiChart{Title: c.Title, Total: c.Total, Totals: make(map[string]string, len(c.Bars))}
	for _, b := range c.Bars {
		out.Totals[b.Label] = b.Value
	}
	return out
}
