package provision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Provisioner creates operating-system accounts. The concrete implementation
// shells out to a privileged command; tests substitute a recording double.
type Provisioner interface {
	// CreateUser invokes the provisioning command with the given name and
	// password. The command owns username validation and duplicate checks.
	CreateUser(ctx context.Context, username, password string) error
	// UserExists probes whether an OS account with the name already exists.
	UserExists(ctx context.Context, username string) (bool, error)
}

// Settings configure the script-backed provisioner.
type Settings struct {
	// Command is the pre-authorized script invoked as: command username password.
	Command string
	// Sudo prefixes the invocation with sudo, the usual deployment shape when
	// the service runs unprivileged.
	Sudo bool
	// Timeout bounds a single provisioning run.
	Timeout time.Duration
}

const defaultTimeout = 30 * time.Second

type scriptProvisioner struct {
	cfg Settings
}

// NewScriptProvisioner validates the settings and returns a Provisioner that
// executes the configured command.
func NewScriptProvisioner(cfg Settings) (Provisioner, error) {
	if strings.TrimSpace(cfg.Command) == "" {
		return nil, errors.New("provision: command is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &scriptProvisioner{cfg: cfg}, nil
}

func (p *scriptProvisioner) CreateUser(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("provision: username is required")
	}
	if password == "" {
		return errors.New("provision: password is required")
	}

	runCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	name, args := p.commandLine(username, password)
	cmd := exec.CommandContext(runCtx, name, args...)

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(output.String())
		if detail != "" {
			return fmt.Errorf("provision: %s: %w: %s", p.cfg.Command, err, detail)
		}
		return fmt.Errorf("provision: %s: %w", p.cfg.Command, err)
	}
	return nil
}

// UserExists runs `id <username>`; a zero exit status means the account is
// present. Only used for a registration-time preview log, never to gate the
// verified path.
func (p *scriptProvisioner) UserExists(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, errors.New("provision: username is required")
	}

	runCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	err := exec.CommandContext(runCtx, "id", username).Run()
	if err == nil {
		return true, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, fmt.Errorf("provision: id %s: %w", username, err)
}

func (p *scriptProvisioner) commandLine(username, password string) (string, []string) {
	if p.cfg.Sudo {
		return "sudo", []string{p.cfg.Command, username, password}
	}
	return p.cfg.Command, []string{username, password}
}
