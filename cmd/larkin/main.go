// Package main is the entry point for larkin.
package main

func main() {
	Execute()
}
