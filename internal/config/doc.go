// Package config provides configuration parsing for attrsync.
//
// The configuration is stored in attrsync.json in the working directory.
// Every field is optional; missing fields take their defaults.
//
// # Configuration File Structure
//
//	{
//	  "log": {
//	    "level": "debug"
//	  },
//	  "metrics": {
//	    "namespace": "attrsync",
//	    "subsystem": "edge"
//	  },
//	  "tracing": {
//	    "tracerName": "attrsync"
//	  },
//	  "server": {
//	    "address": ":7070",
//	    "readLimit": 65536,
//	    "writeTimeout": "10s"
//	  },
//	  "strategies": {
//	    "aria-pressed": "boolean"
//	  },
//	  "namespaces": {
//	    "xml": "http://www.w3.org/XML/1998/namespace"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Address:", cfg.Server.Address)
package config
