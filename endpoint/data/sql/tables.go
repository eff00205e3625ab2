package sql

import "strings"

type Tables struct {
	Channels       string
	Endpoints      string
	Groups         string
	GroupEndpoints string
}

func NewTables(prefix string) Tables {
	return Tables{
		Channels:       prefix + "channels",
		Endpoints:      prefix + "endpoints",
		Groups:         prefix + "endpoint_groups",
		GroupEndpoints: prefix + "endpoint_to_group",
	}
}

func qualify(alias string, cols []string, quote func(string) string) string {
	var q []string
	for _, c := range cols {
		q = append(q, alias+"."+quote(c))
	}

	return strings.Join(q, ", ")
}
