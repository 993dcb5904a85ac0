// Command fintrackctl inspects and maintains a fintrack ledger from the terminal.
package main

func main() {
	Execute()
}
