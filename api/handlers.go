package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	leadgen "github.com/osr-alliance/backend-lib-leadgen"
	"github.com/osr-alliance/backend-lib-leadgen/analyzer"
)

const maxRequestBytes = 1 << 20

type listResponse struct {
	Kind  leadgen.ListKind `json:"kind"`
	Leads []leadgen.Lead   `json:"leads"`
}

type campaignResponse struct {
	Request  leadgen.CampaignRequest `json:"request"`
	Plan     leadgen.CampaignPlan    `json:"plan"`
	Insights leadgen.Insights        `json:"insights"`
}

func (a *api) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Analyze is the offline analyze service: same request and response shape as the remote one
func (a *api) Analyze(w http.ResponseWriter, r *http.Request) {
	req := leadgen.AnalyzeRequest{}
	if !decode(w, r, &req) {
		return
	}
	if req.Task == "" {
		req.Task = leadgen.TaskInsights
	}

	out, err := leadgen.Analyze(req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"insights": out})
}

func (a *api) Campaign(w http.ResponseWriter, r *http.Request) {
	req := leadgen.CampaignRequest{}
	if !decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		a.writeError(w, err)
		return
	}

	in, err := analyzer.Campaign(r.Context(), a.analyzer, req)
	if err != nil {
		a.log.WithError(err).Warn("campaign insights failed")
		writeJSONError(w, http.StatusBadGateway, err.Error())
		return
	}

	plan := leadgen.BuildPlan(req, in)
	writeJSON(w, http.StatusOK, campaignResponse{
		Request:  req.Trimmed(),
		Plan:     plan,
		Insights: in,
	})
}

func (a *api) CreateSession(w http.ResponseWriter, r *http.Request) {
	s, err := a.store.CreateSession(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (a *api) GetSession(w http.ResponseWriter, r *http.Request) {
	s, err := a.store.LoadSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (a *api) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := a.store.DeleteSession(r.Context(), mux.Vars(r)["id"]); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) GetList(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind, err := leadgen.ParseListKind(vars["kind"])
	if err != nil {
		a.writeError(w, err)
		return
	}

	leads, err := a.store.List(r.Context(), vars["id"], kind)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Kind: kind, Leads: leads})
}

func (a *api) AddLead(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind, err := leadgen.ParseListKind(vars["kind"])
	if err != nil {
		a.writeError(w, err)
		return
	}

	in := leadgen.Lead{}
	if !decode(w, r, &in) {
		return
	}
	lead, err := in.Normalize()
	if err != nil {
		a.writeError(w, err)
		return
	}

	leads, err := a.store.AddLead(r.Context(), vars["id"], kind, lead)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, listResponse{Kind: kind, Leads: leads})
}

func (a *api) RemoveLead(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind, err := leadgen.ParseListKind(vars["kind"])
	if err != nil {
		a.writeError(w, err)
		return
	}

	// the route only matches digits
	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid lead index")
		return
	}

	leads, err := a.store.RemoveLead(r.Context(), vars["id"], kind, index)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Kind: kind, Leads: leads})
}

func (a *api) Score(w http.ResponseWriter, r *http.Request) {
	leads, err := a.store.List(r.Context(), mux.Vars(r)["id"], leadgen.ListScore)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if len(leads) == 0 {
		a.writeError(w, leadgen.ErrNoLeads)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"scores": leadgen.ScoreBoard(leads)})
}

func (a *api) Pitch(w http.ResponseWriter, r *http.Request) {
	leads, err := a.store.List(r.Context(), mux.Vars(r)["id"], leadgen.ListPitch)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if len(leads) == 0 {
		a.writeError(w, leadgen.ErrNoLeads)
		return
	}

	cards, err := analyzer.Pitches(r.Context(), a.analyzer, leads)
	if err != nil {
		a.log.WithError(err).Warn("pitch generation failed")
		writeJSONError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"pitches": cards})
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(v)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}
