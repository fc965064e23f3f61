//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
// If not set, running mage will list available targets
var Default = Build

func Build() error {
	mg.Deps(BuildReco)
	mg.Deps(BuildSim)
	fmt.Println("Compilation finished")
	return nil
}

func BuildReco() error {
	fmt.Println("Building bbcreco executable...")
	return goCommand("build", "-o", "./bin/bbcreco", "./bbcreco")
}

func BuildSim() error {
	fmt.Println("Building bbcsim executable...")
	return goCommand("build", "-o", "./bin/bbcsim", "./bbcsim")
}

// Test runs the unit tests of every package.
func Test() error {
	fmt.Println("Running tests...")
	return goCommand("test", "./...")
}

// Smoke simulates a run and reconstructs it with the sample configuration.
func Smoke() error {
	mg.Deps(Build)
	sim := exec.Command("./bin/bbcsim", "-o", "./bin/smoke.raw", "-n", "500", "-z", "10")
	sim.Stdout = os.Stdout
	sim.Stderr = os.Stderr
	if err := sim.Run(); err != nil {
		return err
	}
	reco := exec.Command("./bin/bbcreco", "-config", "./config/smoke.json")
	reco.Stdout = os.Stdout
	reco.Stderr = os.Stderr
	return reco.Run()
}

// goCommand runs the go tool with cgo enabled, hdf5 needs it.
func goCommand(args ...string) error {
	ldflags := os.Getenv("CGO_LDFLAGS")
	cflags := os.Getenv("CGO_CFLAGS")
	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(),
		"CGO_ENABLED=1",
		fmt.Sprintf("CGO_LDFLAGS=%s", ldflags),
		fmt.Sprintf("CGO_CFLAGS=%s", cflags))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
