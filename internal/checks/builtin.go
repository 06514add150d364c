// Package checks assembles the built-in diagnostics.
package checks

import (
	"github.com/doeshing/vitals/internal/checks/deployment"
	"github.com/doeshing/vitals/internal/checks/local"
	"github.com/doeshing/vitals/internal/checks/project"
	"github.com/doeshing/vitals/internal/checks/repository"
	"github.com/doeshing/vitals/internal/checks/services"
	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
)

// Builtin returns every built-in check in category order. Checks listed in
// checks.disabled are still returned; run selection excludes them.
func Builtin(runner ports.CommandRunner, prober ports.Prober, cfg domain.Config) []ports.Check {
	return []ports.Check{
		local.NewGitInstall(runner),
		local.NewEnvironmentVars(),
		local.NewDiskSpace(runner, cfg),
		local.NewGoVersion(runner),

		project.NewPackageJSON(),
		project.NewNodeVersion(runner),
		project.NewVitalsDirectory(),

		repository.NewGitRepo(runner),
		repository.NewGitignore(),
		repository.NewGitStatus(runner),
		repository.NewCommitHistory(runner, cfg),

		deployment.NewEnvFile(),
		deployment.NewDockerConfig(runner),

		services.NewAPIEndpoints(prober, cfg),
		services.NewGitHubCLI(runner),
	}
}
