package launch

var browser = Command{Name: "open", Args: []string{"-a", "Google Chrome"}}
