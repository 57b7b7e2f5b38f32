// Package provider holds the error mapping and build reference parsing shared
// by the CLI and the MCP tools.
package provider

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// BuildRef identifies a build in Azure DevOps
type BuildRef struct {
	Organization string // empty when parsed from a bare id
	Project      string // empty when parsed from a bare id
	BuildID      int
}

var (
	devAzurePath = regexp.MustCompile(`^/([^/]+)/([^/]+)/_build/results/?$`)
	legacyPath   = regexp.MustCompile(`^/([^/]+)/_build/results/?$`)
)

// ParseBuildRef accepts a numeric build id or an Azure DevOps results URL:
//   - 1234
//   - https://dev.azure.com/{org}/{project}/_build/results?buildId=1234
//   - https://{org}.visualstudio.com/{project}/_build/results?buildId=1234
func ParseBuildRef(s string) (*BuildRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidURL)
	}

	if id, err := strconv.Atoi(s); err == nil {
		if id <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidURL, s)
		}
		return &BuildRef{BuildID: id}, nil
	}

	u, err := url.Parse(s)
	if err != nil || u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, s)
	}

	id, err := strconv.Atoi(u.Query().Get("buildId"))
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, s)
	}

	host := strings.ToLower(u.Host)
	switch {
	case host == "dev.azure.com":
		m := devAzurePath.FindStringSubmatch(u.Path)
		if m == nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidURL, s)
		}
		return &BuildRef{Organization: m[1], Project: m[2], BuildID: id}, nil

	case strings.HasSuffix(host, ".visualstudio.com"):
		m := legacyPath.FindStringSubmatch(u.Path)
		if m == nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidURL, s)
		}
		org := strings.TrimSuffix(host, ".visualstudio.com")
		return &BuildRef{Organization: org, Project: m[1], BuildID: id}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrInvalidURL, s)
}

// CheckScope returns ErrOtherProject when ref was parsed from a URL naming a
// different organization or project than orgURL and project. Names compare
// case-insensitively. An organization that cannot be read from orgURL, as on
// Azure DevOps Server, is not checked.
func CheckScope(ref *BuildRef, orgURL, project string) error {
	if ref == nil {
		return nil
	}
	if ref.Project != "" && !strings.EqualFold(ref.Project, project) {
		return fmt.Errorf("%w: URL project %q, configured %q", ErrOtherProject, ref.Project, project)
	}
	if org := OrganizationOf(orgURL); ref.Organization != "" && org != "" && !strings.EqualFold(ref.Organization, org) {
		return fmt.Errorf("%w: URL organization %q, configured %q", ErrOtherProject, ref.Organization, org)
	}
	return nil
}

// OrganizationOf returns the organization named by an Azure DevOps Services
// URL, or "" for any other URL.
func OrganizationOf(orgURL string) string {
	u, err := url.Parse(strings.TrimSpace(orgURL))
	if err != nil {
		return ""
	}

	host := strings.ToLower(u.Host)
	switch {
	case host == "dev.azure.com":
		org, _, _ := strings.Cut(strings.Trim(u.Path, "/"), "/")
		return org
	case strings.HasSuffix(host, ".visualstudio.com"):
		return strings.TrimSuffix(host, ".visualstudio.com")
	}
	return ""
}
