package query

const (
	TypeCurrentSession = "apiclient.query.session.current"
	TypeConfiguration  = "apiclient.query.configuration"
)

type CurrentSessionMessage struct{}

func (CurrentSessionMessage) Type() string { return TypeCurrentSession }

func (CurrentSessionMessage) Validate() error { return nil }

type ConfigurationMessage struct{}

func (ConfigurationMessage) Type() string { return TypeConfiguration }

func (ConfigurationMessage) Validate() error { return nil }
