package imageprint

// TermSize is the terminal size in character cells and, where the terminal
// reports it, in pixels.
type TermSize struct {
	WSRow, WSCol       uint
	WSXPixel, WSYPixel uint
}

// FitTerminal limits printed images to the terminal: in pixels for the image
// protocols if the terminal reports its pixel size, in cells otherwise.
func (p *Printer) FitTerminal(m Mode) error {
	ts, err := GetTermSize()
	if err != nil {
		return err
	}
	if m == ModeAuto {
		m = Detect()
	}
	if (m == ModeRasTerm || m == ModeITerm) && ts.WSXPixel != 0 && ts.WSYPixel != 0 {
		p.MaxWidth, p.MaxHeight = ts.WSXPixel/2, ts.WSYPixel/2
		return nil
	}
	// Every pixel is two cells wide.
	p.MaxWidth, p.MaxHeight = ts.WSCol/2, ts.WSRow
	return nil
}
