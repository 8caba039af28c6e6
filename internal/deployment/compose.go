package deployment

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

const (
	composeFile  = "docker-compose.yaml"
	workerName   = "mech_abci_0"
	workerImage  = "valory/oar-mech"
	logsDirName  = "persistent_data/logs"
	dataMountDst = "/data"
	logsMountDst = "/logs"
)

// composeDescriptor is the generated docker compose document.
type composeDescriptor struct {
	Services map[string]composeService `yaml:"services"`
}

type composeService struct {
	ContainerName string   `yaml:"container_name"`
	Image         string   `yaml:"image"`
	Environment   []string `yaml:"environment"`
	Volumes       []string `yaml:"volumes"`
	Restart       string   `yaml:"restart"`
}

// WriteCompose renders the compose descriptor for the worker into dir. The
// environment map is emitted in sorted key order so regeneration is
// deterministic, and the operate home is mounted as the container's data
// directory.
func WriteCompose(dir, home, imageTag string, env map[string]string) (string, error) {
	logsDir := filepath.Join(dir, logsDirName)
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create deployment directory: %w", err)
	}

	keys := make([]string, 0, len(env))
	for key := range env {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	environment := make([]string, 0, len(keys))
	for _, key := range keys {
		environment = append(environment, fmt.Sprintf("%s=%s", key, env[key]))
	}

	descriptor := composeDescriptor{
		Services: map[string]composeService{
			workerName: {
				ContainerName: workerName,
				Image:         fmt.Sprintf("%s:%s", workerImage, imageTag),
				Environment:   environment,
				Volumes: []string{
					fmt.Sprintf("./%s:%s:Z", logsDirName, logsMountDst),
					fmt.Sprintf("%s:%s:Z", home, dataMountDst),
				},
				Restart: "unless-stopped",
			},
		},
	}

	data, err := yaml.Marshal(descriptor)
	if err != nil {
		return "", fmt.Errorf("failed to encode compose descriptor: %w", err)
	}

	path := filepath.Join(dir, composeFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write compose descriptor: %w", err)
	}
	return path, nil
}
