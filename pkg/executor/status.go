package executor

// Status is the outcome of executing a block or a whole program.
type Status int

const (
	Success Status = iota
	SyntaxError
	FatalError
)

func (s Status) String() string {
	switch s {
	case Success:
		return "Success"
	case SyntaxError:
		return "SyntaxError"
	case FatalError:
		return "FatalError"
	}
	return "Status(?)"
}

// Banner returns the message printed when a run ends with s.
func (s Status) Banner() string {
	switch s {
	case Success:
		return "[KLAR] Programmet kördes utan problem!"
	case SyntaxError:
		return "[KLAR] Programmet var inte komplett när det kördes."
	default:
		return "[KLAR] Programmet krashade på grund av ett allvarligt fel!"
	}
}

// ExitCode maps s to a process exit code. Code 1 is reserved for usage errors.
func (s Status) ExitCode() int {
	switch s {
	case Success:
		return 0
	case SyntaxError:
		return 2
	default:
		return 3
	}
}

// ParseStatus parses the configuration spelling of a failure status.
func ParseStatus(s string) (Status, bool) {
	switch s {
	case "syntax", "SyntaxError":
		return SyntaxError, true
	case "fatal", "FatalError":
		return FatalError, true
	}
	return 0, false
}
