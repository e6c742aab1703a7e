// Package core holds the API manager, its configuration, session and
// transport contracts, and the error envelope shared by every adapter.
// Core must not depend on concrete transports, stores, or locators.
package core
