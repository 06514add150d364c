// Package project contains checks of the project manifest, runtime and layout.
package project

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"regexp"
	"strings"

	"github.com/doeshing/vitals/internal/checks/base"
	"github.com/doeshing/vitals/internal/domain"
)

var packageNamePattern = regexp.MustCompile(`^(?:@[a-z0-9-*~][a-z0-9-*._~]*/)?[a-z0-9-~][a-z0-9-._~]*$`)

// nodeMarkers indicate a Node.js project even without a manifest.
var nodeMarkers = []string{"package-lock.json", "yarn.lock", "pnpm-lock.yaml", "node_modules"}

// PackageManifest is the subset of package.json the checks read.
type PackageManifest struct {
	Name    string            `json:"name"`
	Version string            `json:"version"`
	Scripts map[string]string `json:"scripts"`
	Engines map[string]string `json:"engines"`
}

// ReadManifest decodes the package.json at path.
func ReadManifest(path string) (PackageManifest, error) {
	var m PackageManifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(data, &m)
	return m, err
}

// PackageJSON validates package.json.
type PackageJSON struct {
	base.Meta
}

// NewPackageJSON builds the check.
func NewPackageJSON() *PackageJSON {
	return &PackageJSON{Meta: base.Meta{
		CheckID: "project.package-json",
		Cat:     domain.CategoryProject,
		Sev:     domain.SeverityCritical,
		Cache:   true,
		Title:   "package.json",
		Summary: "Validates package.json exists and is well formed",
		Labels:  []string{"node", "npm", "manifest"},
	}}
}

func (c *PackageJSON) Execute(_ context.Context, cc domain.CheckContext) (domain.CheckResult, error) {
	path := cc.Path("package.json")
	manifest, err := ReadManifest(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if !hasNodeMarkers(cc) {
			return domain.Pass("No package.json (not a Node.js project)", nil), nil
		}
		return domain.Fail("package.json not found", "Run: npm init", nil), nil
	case err != nil:
		if invalidJSON(err) {
			return domain.Fail("package.json contains invalid JSON: "+err.Error(), "Fix the JSON syntax in package.json", nil), nil
		}
		return domain.Errored("Could not read package.json: "+err.Error(), nil), nil
	}

	details := map[string]interface{}{
		"name":    manifest.Name,
		"version": manifest.Version,
		"scripts": len(manifest.Scripts),
	}
	var missing []string
	if manifest.Name == "" {
		missing = append(missing, "name")
	}
	if manifest.Version == "" {
		missing = append(missing, "version")
	}
	if len(missing) > 0 {
		return domain.Warn(
			"package.json is missing required fields: "+strings.Join(missing, ", "),
			"Add the missing fields to package.json",
			details,
		), nil
	}
	if !ValidPackageName(manifest.Name) {
		return domain.Warn(
			"Invalid package name: "+manifest.Name,
			"Package names must be lowercase and URL-safe, e.g. my-package or @scope/my-package",
			details,
		), nil
	}
	return domain.Pass("package.json is valid", details), nil
}

func (c *PackageJSON) CacheKey(cc domain.CheckContext) []string {
	key := []string{base.FileDigest(cc.Path("package.json"))}
	for _, m := range nodeMarkers {
		key = append(key, base.PathKind(cc.Path(m)))
	}
	return key
}

// ValidPackageName applies npm naming rules.
func ValidPackageName(name string) bool {
	return len(name) <= 214 && packageNamePattern.MatchString(name)
}

func hasNodeMarkers(cc domain.CheckContext) bool {
	for _, m := range nodeMarkers {
		if base.Exists(cc.Path(m)) {
			return true
		}
	}
	return false
}

func invalidJSON(err error) bool {
	var syntax *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntax) || errors.As(err, &typeErr)
}
