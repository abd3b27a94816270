package core

// WithAdminCheck rejects admin-gated commands for regular members.
func WithAdminCheck() Middleware {
	return func(cmd Command) Command {
		return &wrappedCommand{
			Command: cmd,
			wrap: func(ctx interface{}) error {
				v, ok := ctx.(*SlashInteractionContext)
				if !ok {
					return cmd.Run(ctx)
				}
				if cmd.RequireAdmin() && v.Event.Member != nil {
					if !IsAdministrator(v.Session, v.Event.GuildID, v.Event.Member) {
						return RespondEphemeral(v.Session, v.Event, "You need to be a server admin to use this command.")
					}
				}
				return cmd.Run(ctx)
			},
		}
	}
}
