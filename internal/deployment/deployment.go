package deployment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/autonolas-community/mechctl/internal/logger"
)

const (
	deploymentDirName = "deployment"
	recordFile        = "deployment.json"
	dbFileName        = "mech.db"
)

// CommandRunner executes an external command. The production runner shells
// out to docker; tests substitute a recorder.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v failed: %w", name, args, err)
	}
	return nil
}

// record is the persisted state of a built deployment.
type record struct {
	BuildID     string `json:"build_id"`
	ComposePath string `json:"compose_path"`
}

// Deployment builds, starts and stops the containerized worker. It owns
// the deployment directory under the operate home; everything else about
// the container runtime is delegated to docker compose.
type Deployment struct {
	home   string
	dir    string
	runner CommandRunner
	log    logger.Logger
}

// New returns the deployment manager rooted at the operate home.
func New(home string, log logger.Logger) *Deployment {
	return &Deployment{
		home:   home,
		dir:    filepath.Join(home, deploymentDirName),
		runner: execRunner{},
		log:    log,
	}
}

// NewWithRunner is like New with a custom command runner.
func NewWithRunner(home string, runner CommandRunner, log logger.Logger) *Deployment {
	d := New(home, log)
	d.runner = runner
	return d
}

// Dir returns the deployment directory.
func (d *Deployment) Dir() string {
	return d.dir
}

// DBPath returns the worker database location inside the deployment.
func (d *Deployment) DBPath() string {
	return filepath.Join(d.dir, logsDirName, dbFileName)
}

// Build renders the compose descriptor from the environment map, restores
// a database backup when one is present next to the working directory, and
// pulls the worker image.
func (d *Deployment) Build(ctx context.Context, imageTag string, env map[string]string) error {
	composePath, err := WriteCompose(d.dir, d.home, imageTag, env)
	if err != nil {
		return err
	}

	rec := record{BuildID: uuid.New().String(), ComposePath: composePath}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode deployment record: %w", err)
	}
	if err := os.WriteFile(filepath.Join(d.dir, recordFile), data, 0o600); err != nil {
		return fmt.Errorf("failed to write deployment record: %w", err)
	}
	d.log.Debug("Deployment built", zap.String("build_id", rec.BuildID))

	if err := d.restoreDB(); err != nil {
		return err
	}
	return d.runner.Run(ctx, "docker", "compose", "-f", composePath, "pull")
}

// Start launches the worker.
func (d *Deployment) Start(ctx context.Context) error {
	return d.runner.Run(ctx, "docker", "compose", "-f", d.composePath(), "up", "--detach")
}

// Stop backs the worker database up next to the working directory, tears
// the containers down and deletes the deployment directory.
func (d *Deployment) Stop(ctx context.Context) error {
	if err := d.backupDB(); err != nil {
		return err
	}
	if err := d.runner.Run(ctx, "docker", "compose", "-f", d.composePath(), "down"); err != nil {
		return err
	}
	if err := os.RemoveAll(d.dir); err != nil {
		return fmt.Errorf("failed to remove deployment directory: %w", err)
	}
	return nil
}

// Exists reports whether a built deployment is present.
func (d *Deployment) Exists() bool {
	_, err := os.Stat(d.composePath())
	return err == nil
}

func (d *Deployment) composePath() string {
	return filepath.Join(d.dir, composeFile)
}

func (d *Deployment) backupPath() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory: %w", err)
	}
	return filepath.Join(cwd, dbFileName), nil
}

func (d *Deployment) restoreDB() error {
	backup, err := d.backupPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(backup); err != nil {
		return nil
	}
	d.log.Info("Loaded a backup of the db")
	return copyFile(backup, d.DBPath())
}

func (d *Deployment) backupDB() error {
	if _, err := os.Stat(d.DBPath()); err != nil {
		return nil
	}
	backup, err := d.backupPath()
	if err != nil {
		return err
	}
	d.log.Info("Created a backup of the db")
	return copyFile(d.DBPath(), backup)
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
