package scan

import (
	"fmt"
	"strings"
)

// Tool is an entry of the selectable tool catalogue.
type Tool struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var catalogue = []Tool{
	{ID: "zap", Name: "ZAP"},
	{ID: "nikto", Name: "Nikto"},
	{ID: "w3af", Name: "W3AF"},
	{ID: "arachni", Name: "Arachni"},
	{ID: "wapiti", Name: "Wapiti"},
	{ID: "observatory", Name: "HTTP Observatory"},
	{ID: "sslyze", Name: "SSLyze"},
	{ID: "testssl", Name: "testssl.sh"},
	{ID: "wafw00f", Name: "wafw00f"},
	{ID: "nmap", Name: "Nmap"},
	{ID: "whatwaf", Name: "WhatWaf"},
	{ID: "jwt_tool", Name: "JWT Tool"},
	{ID: "kiterunner", Name: "Kiterunner"},
	{ID: "postman", Name: "Postman"},
	{ID: "graphqlmap", Name: "GraphQLmap"},
	{ID: "sqlmap", Name: "SQLMap"},
	{ID: "xsstrike", Name: "XSStrike"},
	{ID: "nosqlmap", Name: "NoSQLMap"},
	{ID: "cloudmapper", Name: "CloudMapper"},
	{ID: "kube-hunter", Name: "kube-hunter"},
	{ID: "cloudsploit", Name: "CloudSploit"},
	{ID: "trivy", Name: "Trivy"},
	{ID: "grype", Name: "Grype"},
	{ID: "semgrep", Name: "Semgrep"},
	{ID: "modelscan", Name: "ModelScan"},
	{ID: "vulnhuntr", Name: "VulnHuntr"},
	{ID: "securityheaders", Name: "Security Headers Scanner"},
}

// Tools returns a copy of the catalogue in display order.
func Tools() []Tool {
	out := make([]Tool, len(catalogue))
	copy(out, catalogue)
	return out
}

// ToolIDs returns every catalogue id in display order.
func ToolIDs() []string {
	ids := make([]string, len(catalogue))
	for i, t := range catalogue {
		ids[i] = t.ID
	}
	return ids
}

// ToolNames resolves ids to display names in catalogue order, not in the
// order given. Unknown ids are skipped. The result is never nil.
func ToolNames(ids []string) []string {
	selected := make(map[string]bool, len(ids))
	for _, id := range ids {
		selected[id] = true
	}
	names := make([]string, 0, len(ids))
	for _, t := range catalogue {
		if selected[t.ID] {
			names = append(names, t.Name)
		}
	}
	return names
}

// ParseTools splits a comma-separated id list. "all" selects the whole
// catalogue.
func ParseTools(s string) ([]string, error) {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		return ToolIDs(), nil
	}
	var ids []string
	for _, part := range strings.Split(s, ",") {
		id := strings.ToLower(strings.TrimSpace(part))
		if id == "" {
			continue
		}
		if !knownTool(id) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTool, id)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func knownTool(id string) bool {
	for _, t := range catalogue {
		if t.ID == id {
			return true
		}
	}
	return false
}
