// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package cli implements the evo command line.

Running evo without a subcommand starts the terminal UI. The other commands
are one-shot views over the same backend:

	evo                               start the chat UI
	evo chat --plain                  line-mode chat
	evo ask "question"                ask once and print the reply
	evo login | logout | whoami       session management
	evo usage                         monthly message allowance
	evo conversations list|show|delete|export
	evo admin users|invite|metrics    tenant administration (TENANT_ADMIN)
	evo super tenants|create-tenant|metrics
	                                  platform administration (SUPER_ADMIN)
	evo config show|get|set|path      configuration
	evo sandbox                       run a local sandbox backend
	evo version

Commands write to cmd.OutOrStdout so tests can capture them. Every command
shares one App, built in the root command's PersistentPreRunE from the
config file, the stored session token and the flags.
*/
package cli
