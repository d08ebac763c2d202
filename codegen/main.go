package main

import (
	"fmt"
	"os"
	"strings"
)

const maxArity = 5

func generateDerive(n int) string {
	var sb strings.Builder

	typeParams := []string{"T any"}
	for i := 1; i <= n; i++ {
		typeParams = append(typeParams, fmt.Sprintf("D%d any", i))
	}

	sourceParams := []string{}
	for i := 1; i <= n; i++ {
		sourceParams = append(sourceParams, fmt.Sprintf("d%d Source[D%d]", i, i))
	}

	loaderParams := []string{}
	for i := 1; i <= n; i++ {
		loaderParams = append(loaderParams, fmt.Sprintf("D%d", i))
	}

	sources := []string{}
	for i := 1; i <= n; i++ {
		sources = append(sources, fmt.Sprintf("d%d", i))
	}

	assertions := []string{}
	for i := 1; i <= n; i++ {
		assertions = append(assertions, fmt.Sprintf("\t\tv%d, err := SafeTypeAssertion[D%d](values[%d])\n", i, i, i-1)+
			"\t\tif err != nil {\n"+
			"\t\t\treturn Fail[T](err)\n"+
			"\t\t}\n")
	}

	valueRefs := []string{}
	for i := 1; i <= n; i++ {
		valueRefs = append(valueRefs, fmt.Sprintf("v%d", i))
	}

	sb.WriteString(fmt.Sprintf("// Derive%d is Dependent with %d typed upstream(s)\n", n, n))
	sb.WriteString(fmt.Sprintf("func Derive%d[%s](\n", n, strings.Join(typeParams, ", ")))
	sb.WriteString("\tr *Registry,\n")
	for _, p := range sourceParams {
		sb.WriteString(fmt.Sprintf("\t%s,\n", p))
	}
	sb.WriteString(fmt.Sprintf("\tloader func(%s) Resolvable[T],\n", strings.Join(loaderParams, ", ")))
	sb.WriteString("\topts ...DeriveOption,\n")
	sb.WriteString(") *LazyStore[T] {\n")
	sb.WriteString(fmt.Sprintf("\treturn Dependent(r, []Upstream{%s}, func(values []any) Resolvable[T] {\n", strings.Join(sources, ", ")))
	for _, a := range assertions {
		sb.WriteString(a)
	}
	sb.WriteString(fmt.Sprintf("\t\treturn loader(%s)\n", strings.Join(valueRefs, ", ")))
	sb.WriteString("\t}, opts...)\n")
	sb.WriteString("}\n\n")

	return sb.String()
}

func main() {
	var output strings.Builder

	for i := 1; i <= maxArity; i++ {
		output.WriteString(generateDerive(i))
	}

	fmt.Print(output.String())

	if len(os.Args) > 1 && os.Args[1] == "-w" {
		file, err := os.OpenFile("derive_generated.go", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			panic(err)
		}
		defer file.Close()

		file.WriteString("package tinystore\n\n")
		file.WriteString("//go:generate go run ./codegen -w\n\n")
		file.WriteString(strings.TrimRight(output.String(), "\n") + "\n")
		fmt.Println("Generated derive_generated.go")
	}
}
