package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var supportedMethods = map[string]struct{}{
	"get":     {},
	"put":     {},
	"post":    {},
	"delete":  {},
	"patch":   {},
	"head":    {},
	"options": {},
}

type operation struct {
	Responses map[string]struct{}
}

type parsedSpec struct {
	Paths map[string]map[string]operation
}

// requiredOperation is a route clients depend on, with the status codes
// they branch on.
type requiredOperation struct {
	Method    string
	Path      string
	Responses []string
}

// requiredOperations is the public route table relative to the /api base path.
var requiredOperations = []requiredOperation{
	{"get", "/health", []string{"200"}},
	{"post", "/login", []string{"200", "403"}},
	{"post", "/users/", []string{"201", "409"}},
	{"get", "/users/{id}", []string{"200", "404"}},
	{"get", "/posts/", []string{"200", "401"}},
	{"post", "/posts/", []string{"201", "401"}},
	{"get", "/posts/{id}", []string{"200", "404"}},
	{"put", "/posts/{id}", []string{"200", "403", "404"}},
	{"delete", "/posts/{id}", []string{"204", "403", "404"}},
	{"post", "/vote/", []string{"201", "404", "409"}},
}

func loadSpec(path string) (parsedSpec, error) {
	// #nosec G304: path comes from CLI flags in a dev tool
	raw, err := os.ReadFile(path)
	if err != nil {
		return parsedSpec{}, err
	}
	return parseSpec(raw)
}

func parseSpec(raw []byte) (parsedSpec, error) {
	doc := map[string]interface{}{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return parsedSpec{}, err
	}

	pathsRaw, ok := doc["paths"]
	if !ok {
		return parsedSpec{}, errors.New("missing top-level paths field")
	}

	pathsMap, ok := toMap(pathsRaw)
	if !ok {
		return parsedSpec{}, errors.New("paths is not an object")
	}

	spec := parsedSpec{Paths: make(map[string]map[string]operation)}

	for pathKey, pathEntry := range pathsMap {
		pathOpsRaw, ok := toMap(pathEntry)
		if !ok {
			continue
		}

		ops := make(map[string]operation)
		for methodKey, methodEntry := range pathOpsRaw {
			methodLower := strings.ToLower(strings.TrimSpace(methodKey))
			if _, supported := supportedMethods[methodLower]; !supported {
				continue
			}

			methodMap, ok := toMap(methodEntry)
			if !ok {
				continue
			}

			ops[methodLower] = operation{Responses: responseCodes(methodMap["responses"])}
		}

		if len(ops) > 0 {
			spec.Paths[pathKey] = ops
		}
	}

	return spec, nil
}

func responseCodes(v interface{}) map[string]struct{} {
	set := make(map[string]struct{})
	responses, ok := toMap(v)
	if !ok {
		return set
	}
	for code := range responses {
		normalized := strings.ToLower(strings.TrimSpace(code))
		if normalized != "" {
			set[normalized] = struct{}{}
		}
	}
	return set
}

func toMap(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// compare lists every path, operation or response code present in base but
// missing from revision.
func compare(base, revision parsedSpec) []string {
	var issues []string

	for path, baseOps := range base.Paths {
		revOps, ok := revision.Paths[path]
		if !ok {
			issues = append(issues, fmt.Sprintf("removed path: %s", path))
			continue
		}

		for method, baseOp := range baseOps {
			revOp, ok := revOps[method]
			if !ok {
				issues = append(issues, fmt.Sprintf("removed operation: %s %s", strings.ToUpper(method), path))
				continue
			}

			for responseCode := range baseOp.Responses {
				if _, ok := revOp.Responses[responseCode]; !ok {
					issues = append(issues, fmt.Sprintf(
						"removed response code: %s %s -> %s",
						strings.ToUpper(method), path, strings.ToUpper(responseCode),
					))
				}
			}
		}
	}

	sort.Strings(issues)
	return issues
}

// checkRequired reports entries of requiredOperations that spec does not document.
func checkRequired(spec parsedSpec) []string {
	var issues []string

	for _, req := range requiredOperations {
		op, ok := spec.Paths[req.Path][req.Method]
		if !ok {
			issues = append(issues, fmt.Sprintf("missing operation: %s %s", strings.ToUpper(req.Method), req.Path))
			continue
		}
		for _, code := range req.Responses {
			if _, ok := op.Responses[code]; !ok {
				issues = append(issues, fmt.Sprintf(
					"missing response code: %s %s -> %s", strings.ToUpper(req.Method), req.Path, code,
				))
			}
		}
	}

	sort.Strings(issues)
	return issues
}
