// awsinventory - multi-region AWS inventory exporter
// Collect. Export. Done.
package main

func main() {
	Execute()
}
