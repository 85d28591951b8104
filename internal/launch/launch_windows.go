package launch

var browser = Command{Name: "cmd", Args: []string{"/c", "start", "chrome"}}
