package main

import (
	"github.com/Aashish23092/payslip-verifier/cmd"
)

func main() {
	cmd.Execute()
}
