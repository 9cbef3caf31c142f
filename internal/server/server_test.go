package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nestview/nestview/pkg/scene"
	"github.com/nestview/nestview/pkg/viewstore"
)

const samplePayload = `{
	"nodes": [
		{"id": "op1", "fullLabel": "source_iter(items)"},
		{"id": "op2", "fullLabel": "map(parse)"},
		{"id": "op3", "fullLabel": "for_each(print)"}
	],
	"edges": [
		{"id": "ed1", "source": "op1", "target": "op2"},
		{"id": "ed2", "source": "op2", "target": "op3", "semanticTags": ["Network"]}
	],
	"hierarchyChoices": [
		{"id": "location", "name": "Location", "children": [
			{"key": "loc0", "name": "Process 0"},
			{"key": "loc1", "name": "Process 1"}
		]}
	],
	"nodeAssignments": {
		"location": {"op1": "loc0", "op2": "loc0", "op3": "loc1"}
	},
	"selectedHierarchy": "location"
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(New(Options{Views: viewstore.NewMemoryStore()}))
	t.Cleanup(ts.Close)
	return ts
}

// do issues a request and decodes the JSON answer into out.
func do(t *testing.T, method, url, body string, out any) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, url, err)
		}
	}
	return resp
}

// createGraph ingests the sample payload and returns the graph ID.
func createGraph(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	var created struct {
		ID string `json:"id"`
	}
	resp := do(t, http.MethodPost, ts.URL+"/graphs", samplePayload, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	if created.ID == "" {
		t.Fatal("create returned no graph ID")
	}
	return created.ID
}

func TestCreateAndScene(t *testing.T) {
	ts := newTestServer(t)
	id := createGraph(t, ts)

	var sc scene.Scene
	resp := do(t, http.MethodGet, ts.URL+"/graphs/"+id+"/scene", "", &sc)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("scene status = %d", resp.StatusCode)
	}
	if len(sc.Nodes) != 3 || len(sc.Containers) != 2 {
		t.Errorf("scene = %d nodes, %d containers, want 3 and 2",
			len(sc.Nodes), len(sc.Containers))
	}
	if sc.GraphID != id {
		t.Errorf("scene graph id = %q, want %q", sc.GraphID, id)
	}
}

func TestCollapseExpandRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	id := createGraph(t, ts)

	var sc scene.Scene
	resp := do(t, http.MethodPost, ts.URL+"/graphs/"+id+"/collapse/loc0", "", &sc)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("collapse status = %d", resp.StatusCode)
	}
	if len(sc.Nodes) != 1 {
		t.Errorf("visible nodes after collapse = %d, want 1", len(sc.Nodes))
	}
	var summarized int
	for _, e := range sc.Edges {
		if e.Summarized > 0 {
			summarized++
		}
	}
	if summarized != 1 {
		t.Errorf("summarized edges = %d, want the lifted hyper-edge", summarized)
	}

	resp = do(t, http.MethodPost, ts.URL+"/graphs/"+id+"/expand/loc0", "", &sc)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expand status = %d", resp.StatusCode)
	}
	if len(sc.Nodes) != 3 || len(sc.Edges) != 2 {
		t.Errorf("scene after expand = %d nodes, %d edges, want 3 and 2",
			len(sc.Nodes), len(sc.Edges))
	}
}

func TestCollapseAllWildcard(t *testing.T) {
	ts := newTestServer(t)
	id := createGraph(t, ts)

	var sc scene.Scene
	resp := do(t, http.MethodPost, ts.URL+"/graphs/"+id+"/collapse/*", "", &sc)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("collapse all status = %d", resp.StatusCode)
	}
	if len(sc.Nodes) != 0 {
		t.Errorf("visible nodes after collapse all = %d, want 0", len(sc.Nodes))
	}
}

func TestSceneWithLayout(t *testing.T) {
	ts := newTestServer(t)
	id := createGraph(t, ts)

	var sc scene.Scene
	resp := do(t, http.MethodGet, ts.URL+"/graphs/"+id+"/scene?layout=grid", "", &sc)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("scene status = %d", resp.StatusCode)
	}
	if sc.Width <= 0 || sc.Height <= 0 {
		t.Errorf("bounds = %gx%g, want positive after layout", sc.Width, sc.Height)
	}
	for _, n := range sc.Nodes {
		if n.Box == nil {
			t.Errorf("node %s has no box after layout", n.ID)
		}
	}

	var body errorBody
	resp = do(t, http.MethodGet, ts.URL+"/graphs/"+id+"/scene?layout=nope", "", &body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown engine status = %d, want 400", resp.StatusCode)
	}
}

func TestValidateEndpoint(t *testing.T) {
	ts := newTestServer(t)
	id := createGraph(t, ts)

	var out struct {
		Violations []json.RawMessage `json:"violations"`
	}
	resp := do(t, http.MethodGet, ts.URL+"/graphs/"+id+"/validate", "", &out)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("validate status = %d", resp.StatusCode)
	}
	if len(out.Violations) != 0 {
		t.Errorf("violations = %v, want none", out.Violations)
	}
}

func TestErrorStatuses(t *testing.T) {
	ts := newTestServer(t)
	id := createGraph(t, ts)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"UnknownGraph", http.MethodGet, "/graphs/nope/scene", "", 404, "GRAPH_NOT_FOUND"},
		{"UnknownContainer", http.MethodPost, "/graphs/" + id + "/collapse/nope", "", 404, "NOT_FOUND"},
		{"BadPayload", http.MethodPost, "/graphs", "not json", 400, "INVALID_FORMAT"},
		{"UnknownView", http.MethodGet, "/views/nope", "", 404, "VIEW_NOT_FOUND"},
		{"DeleteUnknownGraph", http.MethodDelete, "/graphs/nope", "", 404, "GRAPH_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body errorBody
			resp := do(t, tt.method, ts.URL+tt.path, tt.body, &body)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if body.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Error.Code, tt.wantCode)
			}
		})
	}
}

func TestViewLifecycle(t *testing.T) {
	ts := newTestServer(t)
	id := createGraph(t, ts)

	do(t, http.MethodPost, ts.URL+"/graphs/"+id+"/collapse/loc0", "", nil)

	var v viewstore.View
	resp := do(t, http.MethodPost, ts.URL+"/graphs/"+id+"/views", `{"name": "folded"}`, &v)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("capture status = %d", resp.StatusCode)
	}
	if v.Name != "folded" || len(v.Collapsed) != 1 || v.Collapsed[0] != "loc0" {
		t.Errorf("captured view = %+v", v)
	}

	var list struct {
		Views []viewstore.View `json:"views"`
	}
	do(t, http.MethodGet, ts.URL+"/graphs/"+id+"/views", "", &list)
	if len(list.Views) != 1 {
		t.Fatalf("views = %+v, want one", list.Views)
	}

	// Reset the graph, then apply the saved view back.
	do(t, http.MethodPost, ts.URL+"/graphs/"+id+"/expand/*", "", nil)
	var sc scene.Scene
	resp = do(t, http.MethodPost, ts.URL+"/views/"+v.ID+"/apply/"+id, "", &sc)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("apply status = %d", resp.StatusCode)
	}
	if len(sc.Nodes) != 1 {
		t.Errorf("visible nodes after apply = %d, want 1", len(sc.Nodes))
	}

	resp = do(t, http.MethodDelete, ts.URL+"/views/"+v.ID, "", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
	resp = do(t, http.MethodGet, ts.URL+"/views/"+v.ID, "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete status = %d", resp.StatusCode)
	}
}
