// Command lmflux runs agents, task graphs and agent meshes from the terminal.
package main

func main() {
	Execute()
}
