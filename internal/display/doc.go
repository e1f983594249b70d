// Package display formats command output for the terminal.
//
// # Scan Output
//
// RenderTree draws the files a file-set selected as a directory tree:
//
//	fmt.Print(display.RenderTree(result.BaseDir, result.Files))
//
// NewScanPrinter returns a listener that echoes every scan decision:
//
//	printer := display.NewScanPrinter(os.Stdout, false)
//	fs.Resolve(root, printer.Listener())
//	printer.Complete()
//
// # Warnings
//
// Warnings render in yellow with optional detail lines:
//
//	display.WarnArchives(index.Warnings).Display(os.Stderr, true)
package display
