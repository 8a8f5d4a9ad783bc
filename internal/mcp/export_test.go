package mcp

import "sort"

// ToolParams returns the sorted parameter names of a registered tool
func (s *Server) ToolParams(name string) ([]string, bool) {
	for _, tool := range s.tools {
		if tool.Name != name {
			continue
		}
		params := make([]string, 0, len(tool.InputSchema.Properties))
		for param := range tool.InputSchema.Properties {
			params = append(params, param)
		}
		sort.Strings(params)
		return params, true
	}
	return nil, false
}
