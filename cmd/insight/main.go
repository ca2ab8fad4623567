package main

import (
	_ "github.com/KimMachineGun/automemlimit"
	_ "go.uber.org/automaxprocs"

	"github.com/kubeadapt/resource-insight/internal/cli"
)

func main() {
	cli.Main()
}
