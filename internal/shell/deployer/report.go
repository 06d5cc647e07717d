package deployer

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/artpar/hajimi-deploy/internal/core/deploy"
)

// managementCommands are printed after every successful deployment.
var managementCommands = [][2]string{
	{"Follow logs", "docker compose logs -f"},
	{"Show status", "docker compose ps"},
	{"Restart", "docker compose restart"},
	{"Stop", "docker compose down"},
	{"Redeploy", "re-run hajimi-deploy in this directory"},
}

// capabilities summarises what the deployed scanner does.
var capabilities = []string{
	"Searches GitHub code with the queries in data/queries.txt",
	"Validates discovered Gemini API keys",
	"Syncs valid keys to SiliconFlow Balancer or GPT Load when enabled",
	"Keeps results and scan checkpoints under data/ across restarts",
}

// Report prints the deployment summary. It never fails.
func (d *Deployer) Report(ctx context.Context) error {
	c := d.console
	c.Step("Deployment complete")

	c.KeyValue("Deploy dir", d.dc.DeployDir)
	c.KeyValue("Env file", d.layout.EnvFile)
	c.KeyValue("Data dir", d.layout.DataDir)
	c.KeyValue("Log dir", d.layout.LogDir)
	c.KeyValue("Queries file", d.layout.QueriesFile)
	c.KeyValue("Active queries", d.activeQueries())
	c.KeyValue("Image", d.dc.Image.String())
	c.KeyValue("Project", d.project.Name)

	if d.manifest != nil {
		c.Line("")
		c.Line("Services:")
		for _, svc := range d.manifest.Services {
			ports := make([]string, 0, len(svc.Ports))
			for _, p := range svc.Ports {
				ports = append(ports, p.String())
			}
			if len(ports) == 0 {
				ports = append(ports, "no published ports")
			}
			c.KeyValue(svc.Name, strings.Join(ports, ", "))
		}
	}

	c.Line("")
	c.Line("Management commands (run in %s):", d.dc.DeployDir)
	for _, cmd := range managementCommands {
		c.KeyValue(cmd[0], cmd[1])
	}

	c.Line("")
	c.Line("Capabilities:")
	for _, line := range capabilities {
		c.Line("  - %s", line)
	}
	return nil
}

func (d *Deployer) activeQueries() string {
	data, err := os.ReadFile(d.layout.QueriesFile)
	if err != nil {
		return "unavailable"
	}
	return strconv.Itoa(len(deploy.ActiveQueries(data)))
}
